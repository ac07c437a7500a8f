package extract

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/geofusion/internal/model"
)

// placeResult is the Nominatim-style search record shared by Nominatim and
// LocationIQ.
type placeResult struct {
	Lat         model.OptFloat    `json:"lat"`
	Lon         model.OptFloat    `json:"lon"`
	Importance  model.OptFloat    `json:"importance"`
	DisplayName string            `json:"display_name"`
	Name        string            `json:"name"`
	AddressType string            `json:"addresstype"`
	Type        string            `json:"type"`
	Class       string            `json:"class"`
	Category    string            `json:"category"`
	BoundingBox []json.RawMessage `json:"boundingbox"`
}

func (r placeResult) candidate(index int) model.Candidate {
	name := firstNonEmpty(r.DisplayName, r.Name)
	if name == "" {
		name = model.UnknownName
	}
	return model.Candidate{
		Index:       index,
		Lat:         r.Lat.Ptr(),
		Lon:         r.Lon.Ptr(),
		DisplayName: name,
		Importance:  r.Importance.Ptr(),
		BoundingBox: stringList(r.BoundingBox),
		Name:        r.Name,
		AddressType: r.AddressType,
		Type:        r.Type,
		Class:       firstNonEmpty(r.Class, r.Category),
	}
}

// mapPlaceList maps a JSON array of place records. noMatch lists provider
// error messages that actually mean "zero matches".
func mapPlaceList(provider string, raw json.RawMessage, noMatch ...string) model.Section {
	if reason, failed := errorReason(raw); failed {
		for _, nm := range noMatch {
			if strings.EqualFold(reason, nm) {
				return model.NoResultSection()
			}
		}
		return model.ErrorSection(reason)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		zap.L().Warn("extract: expected a result list",
			zap.String("provider", provider),
			zap.Error(err),
		)
		return model.ErrorSection("malformed " + provider + " response")
	}
	if len(items) == 0 {
		return model.NoResultSection()
	}

	candidates := make([]model.Candidate, 0, len(items))
	for i, item := range items {
		var res placeResult
		if err := json.Unmarshal(item, &res); err != nil {
			zap.L().Warn("extract: skipping malformed result",
				zap.String("provider", provider),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, checkCoords(provider, res.candidate(i)))
	}
	return model.OKSection(candidates)
}

// NominatimMapper maps OpenStreetMap Nominatim search results.
type NominatimMapper struct{}

// Provider implements Mapper.
func (NominatimMapper) Provider() string { return model.ProviderNominatim }

// Map implements Mapper.
func (NominatimMapper) Map(_ context.Context, raw json.RawMessage) model.Section {
	return mapPlaceList(model.ProviderNominatim, raw)
}

// LocationIQMapper maps LocationIQ search results. LocationIQ reports zero
// matches as an error object, which is translated to a no-result section.
type LocationIQMapper struct{}

// Provider implements Mapper.
func (LocationIQMapper) Provider() string { return model.ProviderLocationIQ }

// Map implements Mapper.
func (LocationIQMapper) Map(_ context.Context, raw json.RawMessage) model.Section {
	return mapPlaceList(model.ProviderLocationIQ, raw, "Unable to geocode")
}

// DefaultMappers returns mappers for the three built-in providers.
func DefaultMappers(opencage *OpenCageMapper) []Mapper {
	return []Mapper{opencage, NominatimMapper{}, LocationIQMapper{}}
}
