package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geofusion/internal/model"
	"github.com/sells-group/geofusion/pkg/wikidata"
)

// keptComponents are the OpenCage address components carried into the
// canonical record.
var keptComponents = []string{
	"_category", "_normalized_city", "_type",
	"city", "town", "village",
	"continent", "country", "country_code",
	"state", "state_district",
}

// nameCascade is the display-name preference order for OpenCage matches.
var nameCascade = []string{"city", "town", "village", "_normalized_city", "state", "country"}

// OpenCageOption configures the OpenCage mapper.
type OpenCageOption func(*OpenCageMapper)

// WithEnrichConcurrency caps concurrent knowledge-base lookups per section.
// Zero or negative means unbounded.
func WithEnrichConcurrency(n int) OpenCageOption {
	return func(m *OpenCageMapper) {
		m.enrichConcurrency = n
	}
}

// OpenCageMapper maps OpenCage responses and enriches matches that carry a
// Wikidata id.
type OpenCageMapper struct {
	kb                wikidata.Client
	enrichConcurrency int
}

// NewOpenCageMapper creates the OpenCage mapper. kb may be nil to skip enrichment.
func NewOpenCageMapper(kb wikidata.Client, opts ...OpenCageOption) *OpenCageMapper {
	m := &OpenCageMapper{kb: kb, enrichConcurrency: 8}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Provider implements Mapper.
func (m *OpenCageMapper) Provider() string { return model.ProviderOpenCage }

type openCageResponse struct {
	Results []json.RawMessage `json:"results"`
	Status  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

type openCagePoint struct {
	Lat model.OptFloat `json:"lat"`
	Lng model.OptFloat `json:"lng"`
	Lon model.OptFloat `json:"lon"`
}

func (p openCagePoint) lon() model.OptFloat {
	if p.Lng.Valid {
		return p.Lng
	}
	return p.Lon
}

type openCageResult struct {
	Annotations struct {
		DMS struct {
			Lat string `json:"lat"`
			Lng string `json:"lng"`
		} `json:"DMS"`
		OSM struct {
			URL string `json:"url"`
		} `json:"OSM"`
		Wikidata string `json:"wikidata"`
	} `json:"annotations"`
	Bounds struct {
		Northeast openCagePoint `json:"northeast"`
		Southwest openCagePoint `json:"southwest"`
	} `json:"bounds"`
	Components map[string]any `json:"components"`
	Confidence model.OptFloat `json:"confidence"`
	Formatted  string         `json:"formatted"`
	Geometry   openCagePoint  `json:"geometry"`
}

// Map implements Mapper.
func (m *OpenCageMapper) Map(ctx context.Context, raw json.RawMessage) model.Section {
	if reason, failed := errorReason(raw); failed {
		return model.ErrorSection(reason)
	}

	var resp openCageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		zap.L().Warn("extract: malformed OpenCage response", zap.Error(err))
		return model.ErrorSection("malformed OpenCage response")
	}
	if resp.Status.Code != 0 && resp.Status.Code != 200 {
		return model.ErrorSection(fmt.Sprintf("%d %s", resp.Status.Code, resp.Status.Message))
	}
	if len(resp.Results) == 0 {
		return model.NoResultSection()
	}

	matches := make([]*openCageResult, len(resp.Results))
	for i, r := range resp.Results {
		var res openCageResult
		if err := json.Unmarshal(r, &res); err != nil {
			zap.L().Warn("extract: skipping malformed OpenCage result", zap.Int("index", i), zap.Error(err))
			continue
		}
		matches[i] = &res
	}

	aliases := m.enrich(ctx, matches)

	candidates := make([]model.Candidate, 0, len(matches))
	for i, res := range matches {
		if res == nil {
			continue
		}
		c := res.candidate(i)
		c.Aliases = aliases[i]
		candidates = append(candidates, checkCoords(model.ProviderOpenCage, c))
	}
	return model.OKSection(candidates)
}

// enrich looks up aliases for every match with a Wikidata id. Lookups run
// concurrently; each writes only its own slot so out[i] always belongs to
// matches[i] whatever order the lookups finish in.
func (m *OpenCageMapper) enrich(ctx context.Context, matches []*openCageResult) []model.Aliases {
	out := make([]model.Aliases, len(matches))
	if m.kb == nil {
		return out
	}

	var eg errgroup.Group
	if m.enrichConcurrency > 0 {
		eg.SetLimit(m.enrichConcurrency)
	}
	for i, res := range matches {
		if res == nil || res.Annotations.Wikidata == "" {
			continue
		}
		id := res.Annotations.Wikidata
		eg.Go(func() error {
			a, err := m.kb.Aliases(ctx, id)
			if err != nil {
				zap.L().Warn("extract: wikidata lookup failed",
					zap.String("wikidata_id", id),
					zap.Int("index", i),
					zap.Error(err),
				)
				return nil
			}
			out[i] = a
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (r *openCageResult) candidate(index int) model.Candidate {
	importance := model.OptFloat{}
	if r.Confidence.Valid {
		importance = model.Float(r.Confidence.Value / 10)
	}

	return model.Candidate{
		Index:       index,
		Lat:         r.Geometry.Lat.Ptr(),
		Lon:         r.Geometry.lon().Ptr(),
		DisplayName: r.displayName(),
		Importance:  importance.Ptr(),
		BoundingBox: r.boundingBox(),
		WikidataID:  r.Annotations.Wikidata,
		DMSLat:      r.Annotations.DMS.Lat,
		DMSLon:      r.Annotations.DMS.Lng,
		OSMURL:      r.Annotations.OSM.URL,
		Components:  r.components(),
	}
}

func (r *openCageResult) component(key string) string {
	if s, ok := r.Components[key].(string); ok {
		return s
	}
	return ""
}

func (r *openCageResult) components() map[string]string {
	out := make(map[string]string)
	for _, k := range keptComponents {
		if v := r.component(k); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r *openCageResult) displayName() string {
	values := make([]string, 0, len(nameCascade)+1)
	for _, k := range nameCascade {
		values = append(values, r.component(k))
	}
	values = append(values, r.Formatted)
	if name := firstNonEmpty(values...); name != "" {
		return name
	}
	return model.UnknownName
}

// boundingBox returns [south, north, west, east], omitting missing parts.
func (r *openCageResult) boundingBox() []string {
	parts := []model.OptFloat{
		r.Bounds.Southwest.Lat,
		r.Bounds.Northeast.Lat,
		r.Bounds.Southwest.lon(),
		r.Bounds.Northeast.lon(),
	}
	var out []string
	for _, p := range parts {
		if p.Valid {
			out = append(out, strconv.FormatFloat(p.Value, 'f', -1, 64))
		}
	}
	return out
}
