// Package wikidata fetches multilingual labels, descriptions and aliases for
// Wikidata entities.
package wikidata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/sells-group/geofusion/internal/model"
)

const defaultBaseURL = "https://www.wikidata.org/w/api.php"

// Languages are the alias languages requested for every entity.
var Languages = []language.Tag{language.English, language.Arabic, language.Hebrew}

// ErrNotFound is returned when Wikidata has no entity for the id.
var ErrNotFound = eris.New("wikidata: entity not found")

// Client looks up knowledge-base aliases.
type Client interface {
	// Aliases returns labels, descriptions and aliases for id keyed by
	// language code. An empty id yields nil, nil.
	Aliases(ctx context.Context, id string) (model.Aliases, error)
}

// Option configures the Wikidata client.
type Option func(*httpClient)

// WithBaseURL sets a custom API URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header. Wikimedia rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit sets a requests-per-second limit. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Wikidata client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: "geofusion/1.0 (+https://github.com/sells-group/geofusion)",
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type entitiesResponse struct {
	Entities map[string]entity `json:"entities"`
	Error    *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type entity struct {
	Missing      *string                 `json:"missing"`
	Labels       map[string]valueEntry   `json:"labels"`
	Descriptions map[string]valueEntry   `json:"descriptions"`
	Aliases      map[string][]valueEntry `json:"aliases"`
}

type valueEntry struct {
	Value string `json:"value"`
}

// Aliases implements Client.
func (c *httpClient) Aliases(ctx context.Context, id string) (model.Aliases, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "wikidata: rate limit")
		}
	}

	params := url.Values{
		"action":    {"wbgetentities"},
		"ids":       {id},
		"props":     {"labels|descriptions|aliases"},
		"languages": {languageParam()},
		"format":    {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "wikidata: build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "wikidata: request %s", id)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("wikidata: %s returned status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wikidata: read body")
	}

	var parsed entitiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(err, "wikidata: parse response for %s", id)
	}
	if parsed.Error != nil {
		return nil, eris.Errorf("wikidata: %s: %s", parsed.Error.Code, parsed.Error.Info)
	}

	ent, ok := parsed.Entities[id]
	if !ok || ent.Missing != nil {
		return nil, eris.Wrapf(ErrNotFound, "id %s", id)
	}

	return ent.toAliases(), nil
}

func (e entity) toAliases() model.Aliases {
	out := make(model.Aliases, len(Languages))
	for _, tag := range Languages {
		lang := tag.String()
		la := model.LanguageAliases{Aliases: []string{}}
		if v, ok := e.Labels[lang]; ok {
			la.Label = &v.Value
		}
		if v, ok := e.Descriptions[lang]; ok {
			la.Description = &v.Value
		}
		for _, a := range e.Aliases[lang] {
			la.Aliases = append(la.Aliases, a.Value)
		}
		out[lang] = la
	}
	return out
}

func languageParam() string {
	codes := make([]string, len(Languages))
	for i, tag := range Languages {
		codes[i] = tag.String()
	}
	return strings.Join(codes, "|")
}
