package geocode

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sells-group/geofusion/internal/model"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

// DefaultUserAgent identifies the application, as the OSM usage policy requires.
const DefaultUserAgent = "geofusion/1.0 (+https://github.com/sells-group/geofusion)"

// Nominatim queries the OpenStreetMap Nominatim service. It needs no key
// and by default is throttled to one request per second.
type Nominatim struct {
	searcher
}

// NewNominatim creates a Nominatim provider.
func NewNominatim(opts ...Option) *Nominatim {
	opts = append([]Option{WithRateLimit(1)}, opts...)
	return &Nominatim{searcher: newSearcher(model.ProviderNominatim, nominatimURL, opts)}
}

// Name implements Provider.
func (p *Nominatim) Name() string { return model.ProviderNominatim }

// Search implements Provider.
func (p *Nominatim) Search(ctx context.Context, place string) (json.RawMessage, error) {
	params := url.Values{
		"q":      {place},
		"format": {"json"},
	}
	return p.get(ctx, p.baseURL+"?"+params.Encode())
}
