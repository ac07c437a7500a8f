// Package geocode queries several geocoding providers for the same place and
// collects their raw responses.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// RawResponses maps provider name to that provider's response body, or to
// an error marker of the form {"error": "..."} when the call failed.
type RawResponses map[string]json.RawMessage

// JSON renders the aggregate as indented JSON.
func (r RawResponses) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, eris.Wrap(err, "geocode: marshal raw responses")
	}
	return b, nil
}

// ErrorMarker builds the stand-in recorded for a failed provider.
func ErrorMarker(reason string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": reason}) //nolint:errchkjson // map[string]string always marshals
	return b
}

// Fanout sends one query to every provider concurrently.
type Fanout struct {
	providers []Provider
}

// NewFanout creates a Fanout over the given providers.
func NewFanout(providers ...Provider) *Fanout {
	return &Fanout{providers: providers}
}

// Providers returns the provider names in query order.
func (f *Fanout) Providers() []string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return names
}

// Search queries every provider and returns their responses keyed by name.
// A failing provider contributes an error marker; Search itself never fails.
func (f *Fanout) Search(ctx context.Context, place string) RawResponses {
	place = NormalizePlace(place)
	slots := make([]json.RawMessage, len(f.providers))

	// Plain Group, not WithContext: one provider failing must not cancel the rest.
	var eg errgroup.Group
	for i, p := range f.providers {
		eg.Go(func() error {
			raw, err := p.Search(ctx, place)
			if err != nil {
				zap.L().Warn("geocode: provider failed",
					zap.String("provider", p.Name()),
					zap.String("place", place),
					zap.Error(err),
				)
				slots[i] = ErrorMarker(failureReason(p.Name(), err))
				return nil
			}
			slots[i] = raw
			return nil
		})
	}
	_ = eg.Wait()

	out := make(RawResponses, len(f.providers))
	for i, p := range f.providers {
		out[p.Name()] = slots[i]
	}
	return out
}

func failureReason(provider string, err error) string {
	if eris.Is(err, ErrMalformedResponse) {
		return fmt.Sprintf("Failed to parse %s response", provider)
	}
	return fmt.Sprintf("Failed to fetch %s data", provider)
}

// NormalizePlace trims the query, collapses internal whitespace and applies
// Unicode NFC so visually identical Arabic or Hebrew input queries identically.
func NormalizePlace(place string) string {
	return norm.NFC.String(strings.Join(strings.Fields(place), " "))
}
