package geocode

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geofusion/internal/model"
)

const locationIQURL = "https://us1.locationiq.com/v1/search.php"

// LocationIQ queries the LocationIQ commercial geocoder.
type LocationIQ struct {
	searcher
	apiKey string
}

// NewLocationIQ creates a LocationIQ provider.
func NewLocationIQ(apiKey string, opts ...Option) *LocationIQ {
	return &LocationIQ{
		searcher: newSearcher(model.ProviderLocationIQ, locationIQURL, opts),
		apiKey:   apiKey,
	}
}

// Name implements Provider.
func (p *LocationIQ) Name() string { return model.ProviderLocationIQ }

// Search implements Provider.
func (p *LocationIQ) Search(ctx context.Context, place string) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, eris.New("geocode: locationiq api key not configured")
	}
	params := url.Values{
		"key":    {p.apiKey},
		"q":      {place},
		"format": {"json"},
	}
	return p.get(ctx, p.baseURL+"?"+params.Encode())
}
