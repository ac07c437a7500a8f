// Package fusion reduces canonical candidates from several providers to a
// single best location.
package fusion

import (
	"sort"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geofusion/internal/model"
)

// Options tune the fusion heuristic.
type Options struct {
	Region              Region
	ImportanceThreshold float64
	// ConsensusKM is the average pairwise distance below which providers
	// are considered to agree.
	ConsensusKM float64
	// TrustedProvider wins whenever providers agree.
	TrustedProvider string
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Region:              DefaultRegion,
		ImportanceThreshold: 0.4,
		ConsensusKM:         5,
		TrustedProvider:     model.ProviderOpenCage,
	}
}

// Filtered is a candidate that passed the region and importance checks.
type Filtered struct {
	Candidate  model.Candidate
	Provider   string
	Name       string
	Lat        float64
	Lon        float64
	Importance float64
}

// Point returns the candidate position.
func (f Filtered) Point() Point {
	return Point{Lat: f.Lat, Lon: f.Lon}
}

// Result converts the candidate into a FusionResult.
func (f Filtered) Result() model.FusionResult {
	return model.FusionResult{
		Service:    f.Provider,
		Name:       f.Name,
		Lat:        f.Lat,
		Lon:        f.Lon,
		Aliases:    f.Candidate.Aliases,
		Importance: f.Importance,
	}
}

// Filter applies the fusion heuristic. It is stateless apart from its options.
type Filter struct {
	opts   Options
	bounds *geom.Bounds
}

// NewFilter creates a Filter.
func NewFilter(opts Options) *Filter {
	return &Filter{opts: opts, bounds: opts.Region.Bounds()}
}

// Options returns the filter configuration.
func (f *Filter) Options() Options {
	return f.opts
}

// Candidates returns every candidate inside the region whose importance
// meets the threshold, sorted by importance descending. Ties keep provider
// order, then provider list order.
func (f *Filter) Candidates(ex model.Extracted) []Filtered {
	var pool []Filtered
	for _, provider := range providerOrder(ex) {
		sec := ex[provider]
		if sec.Status != model.StatusOK {
			continue
		}
		for _, c := range sec.Candidates {
			if !c.HasCoords() {
				continue
			}
			lat, lon := *c.Lat, *c.Lon
			if !f.bounds.OverlapsPoint(geom.XY, geom.Coord{lon, lat}) {
				continue
			}
			importance := 0.0
			if c.Importance != nil {
				importance = *c.Importance
			}
			if importance < f.opts.ImportanceThreshold {
				continue
			}
			name := c.DisplayName
			if name == "" {
				name = model.UnknownName
			}
			pool = append(pool, Filtered{
				Candidate:  c,
				Provider:   provider,
				Name:       name,
				Lat:        lat,
				Lon:        lon,
				Importance: importance,
			})
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Importance > pool[j].Importance
	})
	return pool
}

// BestPerProvider keeps the highest-importance candidate per provider. pool
// must be sorted as returned by Candidates; the first seen wins ties.
func BestPerProvider(pool []Filtered) []Filtered {
	idx := make(map[string]int)
	var best []Filtered
	for _, c := range pool {
		i, ok := idx[c.Provider]
		if !ok {
			idx[c.Provider] = len(best)
			best = append(best, c)
			continue
		}
		if c.Importance > best[i].Importance {
			best[i] = c
		}
	}
	return best
}

// Resolve picks at most one result. When the providers' best candidates lie
// on average closer than ConsensusKM and the trusted provider has one, the
// trusted candidate wins; otherwise the most important candidate wins.
func (f *Filter) Resolve(ex model.Extracted) *model.FusionResult {
	best := BestPerProvider(f.Candidates(ex))
	if len(best) == 0 {
		return nil
	}

	points := make([]Point, len(best))
	for i, b := range best {
		points[i] = b.Point()
	}
	avg := AverageDistanceKM(points)

	if avg < f.opts.ConsensusKM {
		for _, b := range best {
			if b.Provider == f.opts.TrustedProvider {
				zap.L().Debug("fusion: providers agree, using trusted provider",
					zap.String("provider", b.Provider),
					zap.Float64("avg_distance_km", avg),
				)
				r := b.Result()
				return &r
			}
		}
	}

	top := best[0]
	for _, b := range best[1:] {
		if b.Importance > top.Importance {
			top = b
		}
	}
	zap.L().Debug("fusion: using highest importance",
		zap.String("provider", top.Provider),
		zap.Float64("avg_distance_km", avg),
		zap.Int("providers", len(best)),
	)
	r := top.Result()
	return &r
}

// providerOrder lists the providers in ex: the built-ins first in their
// canonical order, then any others alphabetically.
func providerOrder(ex model.Extracted) []string {
	order := make([]string, 0, len(ex))
	known := make(map[string]bool, len(model.ProviderOrder))
	for _, p := range model.ProviderOrder {
		known[p] = true
		if _, ok := ex[p]; ok {
			order = append(order, p)
		}
	}
	var extra []string
	for p := range ex {
		if !known[p] {
			extra = append(extra, p)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
