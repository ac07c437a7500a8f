package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geofusion/internal/config"
	"github.com/sells-group/geofusion/internal/extract"
	"github.com/sells-group/geofusion/internal/fusion"
	"github.com/sells-group/geofusion/internal/instrument"
	"github.com/sells-group/geofusion/internal/pipeline"
	"github.com/sells-group/geofusion/pkg/geocode"
	"github.com/sells-group/geofusion/pkg/wikidata"
)

// providerOptions maps a provider section to client options.
func providerOptions(pc config.ProviderConfig) []geocode.Option {
	opts := []geocode.Option{
		geocode.WithBaseURL(pc.BaseURL),
		geocode.WithUserAgent(pc.UserAgent),
		geocode.WithTimeout(pc.Timeout()),
	}
	// Only an explicit limit replaces a provider's built-in one.
	if pc.RateLimit > 0 {
		opts = append(opts, geocode.WithRateLimit(pc.RateLimit))
	}
	return opts
}

// buildProviders creates every enabled geocoding provider in canonical order.
func buildProviders(c *config.Config) ([]geocode.Provider, error) {
	var providers []geocode.Provider
	if !c.OpenCage.Disabled {
		providers = append(providers, geocode.NewOpenCage(c.OpenCage.Key, providerOptions(c.OpenCage)...))
	}
	if !c.Nominatim.Disabled {
		providers = append(providers, geocode.NewNominatim(providerOptions(c.Nominatim)...))
	}
	if !c.LocationIQ.Disabled {
		providers = append(providers, geocode.NewLocationIQ(c.LocationIQ.Key, providerOptions(c.LocationIQ)...))
	}
	if len(providers) == 0 {
		return nil, eris.New("no geocoding providers enabled")
	}
	return providers, nil
}

// buildKB returns the Wikidata client, or nil when enrichment is disabled.
func buildKB(c *config.Config) wikidata.Client {
	if c.Wikidata.Disabled {
		return nil
	}
	opts := []wikidata.Option{
		wikidata.WithBaseURL(c.Wikidata.BaseURL),
		wikidata.WithUserAgent(c.Wikidata.UserAgent),
		wikidata.WithRateLimit(c.Wikidata.RateLimit),
	}
	if t := c.Wikidata.Timeout(); t > 0 {
		opts = append(opts, wikidata.WithHTTPClient(&http.Client{Timeout: t}))
	}
	return wikidata.NewClient(opts...)
}

// buildPipeline wires providers, extractor, filter and timer from c. reg may
// be nil to skip metrics.
func buildPipeline(c *config.Config, reg prometheus.Registerer) (*pipeline.Pipeline, error) {
	providers, err := buildProviders(c)
	if err != nil {
		return nil, err
	}

	timerOpts := []instrument.Option{instrument.WithSlowThreshold(c.Pipeline.SlowThreshold())}
	if reg != nil {
		timerOpts = append(timerOpts, instrument.WithRegisterer(reg))
	}
	timer, err := instrument.NewTimer(timerOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "init instrumentation")
	}

	opencage := extract.NewOpenCageMapper(buildKB(c), extract.WithEnrichConcurrency(c.Pipeline.EnrichConcurrency))

	return pipeline.New(
		geocode.NewFanout(providers...),
		extract.New(extract.DefaultMappers(opencage)...),
		fusion.NewFilter(c.Fusion.Options()),
		pipeline.WithTimer(timer),
		pipeline.WithBatchConcurrency(c.Pipeline.BatchConcurrency),
	), nil
}
