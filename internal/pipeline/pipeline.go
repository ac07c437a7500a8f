// Package pipeline runs the geocoding fan-out, canonical extraction and
// fusion stages for one or many place names.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geofusion/internal/instrument"
	"github.com/sells-group/geofusion/internal/model"
	"github.com/sells-group/geofusion/pkg/geocode"
)

// Stage names reported to the instrumentation timer.
const (
	StageSearch  = "search"
	StageExtract = "extract"
	StageFuse    = "fuse"
)

// Searcher queries every configured provider for a place.
type Searcher interface {
	Search(ctx context.Context, place string) geocode.RawResponses
}

// Extractor maps raw provider responses to canonical candidates.
type Extractor interface {
	Extract(ctx context.Context, raw geocode.RawResponses) model.Extracted
}

// Fuser reduces canonical candidates to at most one result.
type Fuser interface {
	Resolve(ex model.Extracted) *model.FusionResult
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimer instruments every stage.
func WithTimer(t *instrument.Timer) Option {
	return func(p *Pipeline) { p.timer = t }
}

// WithBatchConcurrency bounds how many places ResolveAll processes at once.
// Zero or negative means unbounded.
func WithBatchConcurrency(n int) Option {
	return func(p *Pipeline) { p.batch = n }
}

// Pipeline orchestrates search, extraction and fusion.
type Pipeline struct {
	searcher  Searcher
	extractor Extractor
	fuser     Fuser
	timer     *instrument.Timer
	batch     int
}

// New creates a Pipeline.
func New(s Searcher, e Extractor, f Fuser, opts ...Option) *Pipeline {
	p := &Pipeline{searcher: s, extractor: e, fuser: f, batch: 4}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Outcome holds every intermediate product of one resolution.
type Outcome struct {
	Query     string               `json:"query"`
	Raw       geocode.RawResponses `json:"raw"`
	Extracted model.Extracted      `json:"extracted"`
	Result    *model.FusionResult  `json:"result"`
}

// Search runs only the fan-out stage.
func (p *Pipeline) Search(ctx context.Context, place string) geocode.RawResponses {
	return instrument.Value(p.timer, StageSearch, func() geocode.RawResponses {
		return p.searcher.Search(ctx, place)
	})
}

// Extract runs the fan-out and extraction stages.
func (p *Pipeline) Extract(ctx context.Context, place string) (geocode.RawResponses, model.Extracted) {
	raw := p.Search(ctx, place)
	ex := instrument.Value(p.timer, StageExtract, func() model.Extracted {
		return p.extractor.Extract(ctx, raw)
	})
	for provider, sec := range ex {
		p.timer.Outcome(provider, string(sec.Status))
	}
	return raw, ex
}

// Resolve runs all three stages for place. The result, when present, is
// annotated with place as given by the caller.
func (p *Pipeline) Resolve(ctx context.Context, place string) Outcome {
	raw, ex := p.Extract(ctx, place)
	res := instrument.Value(p.timer, StageFuse, func() *model.FusionResult {
		return p.fuser.Resolve(ex)
	})

	out := Outcome{Query: place, Raw: raw, Extracted: ex}
	if res != nil {
		annotated := res.WithQuery(place)
		out.Result = &annotated
	}

	zap.L().Debug("pipeline: resolved",
		zap.String("query", place),
		zap.Bool("found", out.Result != nil),
	)
	return out
}

// ResolveAll resolves every place and returns the results in input order.
// Places without an answer are left out.
func (p *Pipeline) ResolveAll(ctx context.Context, places []string) []model.FusionResult {
	slots := make([]*model.FusionResult, len(places))

	var eg errgroup.Group
	if p.batch > 0 {
		eg.SetLimit(p.batch)
	}
	for i, place := range places {
		eg.Go(func() error {
			slots[i] = p.Resolve(ctx, place).Result
			return nil
		})
	}
	_ = eg.Wait()

	results := make([]model.FusionResult, 0, len(places))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("places", len(places)),
		zap.Int("resolved", len(results)),
	)
	return results
}
