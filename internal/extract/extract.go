// Package extract normalizes raw provider responses into canonical candidates.
package extract

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geofusion/internal/model"
	"github.com/sells-group/geofusion/pkg/geocode"
)

// Mapper turns one provider's raw response into a section of canonical
// candidates. Adding a provider means adding a Mapper.
type Mapper interface {
	Provider() string
	Map(ctx context.Context, raw json.RawMessage) model.Section
}

// Extractor runs every registered Mapper over a fan-out aggregate.
type Extractor struct {
	mappers []Mapper
}

// New creates an Extractor with the given mappers.
func New(mappers ...Mapper) *Extractor {
	return &Extractor{mappers: mappers}
}

// Extract maps every provider present in raw concurrently. Providers missing
// from raw get no section, which downstream reads as "not queried".
func (e *Extractor) Extract(ctx context.Context, raw geocode.RawResponses) model.Extracted {
	sections := make([]model.Section, len(e.mappers))
	present := make([]bool, len(e.mappers))

	var eg errgroup.Group
	for i, m := range e.mappers {
		body, ok := raw[m.Provider()]
		if !ok {
			continue
		}
		present[i] = true
		eg.Go(func() error {
			sections[i] = m.Map(ctx, body)
			return nil
		})
	}
	_ = eg.Wait()

	out := make(model.Extracted, len(e.mappers))
	for i, m := range e.mappers {
		if present[i] {
			out[m.Provider()] = sections[i]
		}
	}

	for name := range raw {
		if _, ok := out[name]; !ok {
			zap.L().Warn("extract: no mapper for provider", zap.String("provider", name))
		}
	}
	return out
}

// checkCoords enforces the both-or-neither coordinate invariant.
func checkCoords(provider string, c model.Candidate) model.Candidate {
	if c.HalfCoords() {
		zap.L().Warn("extract: candidate has only one coordinate, dropping both",
			zap.String("provider", provider),
			zap.Int("index", c.Index),
		)
		c.Lat, c.Lon = nil, nil
	}
	return c
}
