package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps a single provider response.
const maxBodyBytes = 8 << 20

// ErrMalformedResponse marks a provider body that is not JSON.
var ErrMalformedResponse = eris.New("geocode: malformed response")

// Provider represents a single geocoding backend. Search returns the
// provider's response body untouched; interpreting it is the extractor's job.
type Provider interface {
	Name() string
	Search(ctx context.Context, place string) (json.RawMessage, error)
}

// Option configures an HTTP-backed provider.
type Option func(*searcher)

// WithBaseURL overrides the provider endpoint (for testing or self-hosted instances).
func WithBaseURL(u string) Option {
	return func(s *searcher) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *searcher) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(s *searcher) {
		if d > 0 {
			s.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit sets a requests-per-second limit. Zero or negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(s *searcher) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(s *searcher) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// searcher is the HTTP plumbing shared by every provider.
type searcher struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newSearcher(name, baseURL string, opts []Option) searcher {
	s := searcher{
		name:       name,
		baseURL:    baseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// get issues a GET and returns the body if it is valid JSON. Providers
// report their own errors in JSON (often with a 4xx status), so the status
// code alone does not make a response unusable.
func (s *searcher) get(ctx context.Context, reqURL string) (json.RawMessage, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "geocode: %s rate limit", s.name)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", s.name)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s request", s.name)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s read body", s.name)
	}

	if !json.Valid(body) {
		return nil, eris.Wrapf(ErrMalformedResponse, "%s returned status %d", s.name, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("geocode: provider returned non-200 JSON body",
			zap.String("provider", s.name),
			zap.Int("status", resp.StatusCode),
		)
	}

	return json.RawMessage(body), nil
}
