package geocode

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geofusion/internal/model"
)

const openCageURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCage queries the OpenCage geocoder, the structured provider whose
// matches carry confidence scores and Wikidata annotations.
type OpenCage struct {
	searcher
	apiKey string
}

// NewOpenCage creates an OpenCage provider.
func NewOpenCage(apiKey string, opts ...Option) *OpenCage {
	return &OpenCage{
		searcher: newSearcher(model.ProviderOpenCage, openCageURL, opts),
		apiKey:   apiKey,
	}
}

// Name implements Provider.
func (p *OpenCage) Name() string { return model.ProviderOpenCage }

// Search implements Provider.
func (p *OpenCage) Search(ctx context.Context, place string) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, eris.New("geocode: opencage api key not configured")
	}
	params := url.Values{
		"q":   {place},
		"key": {p.apiKey},
	}
	return p.get(ctx, p.baseURL+"?"+params.Encode())
}
