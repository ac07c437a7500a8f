// Package model defines the records exchanged between the fan-out, extractor
// and fusion stages.
package model

// Provider names. They double as keys of the raw aggregate and of the
// extracted sections.
const (
	ProviderOpenCage   = "OpenCage"
	ProviderNominatim  = "Nominatim"
	ProviderLocationIQ = "LocationIQ"
)

// ProviderOrder is the canonical provider iteration order.
var ProviderOrder = []string{ProviderOpenCage, ProviderNominatim, ProviderLocationIQ}

// UnknownName is the display name used when a provider offers no label.
const UnknownName = "Unknown"

// Candidate is one normalized geocode match.
type Candidate struct {
	Index       int      `json:"index" yaml:"index"`
	Lat         *float64 `json:"lat" yaml:"lat"`
	Lon         *float64 `json:"lon" yaml:"lon"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Importance  *float64 `json:"importance" yaml:"importance"`
	// BoundingBox is [south, north, west, east]; missing components are
	// dropped, not padded.
	BoundingBox []string `json:"boundingbox,omitempty" yaml:"boundingbox,omitempty"`
	Aliases     Aliases  `json:"knowledge_base_aliases" yaml:"knowledge_base_aliases"`

	// Provider specific extras.
	WikidataID  string            `json:"wikidata,omitempty" yaml:"wikidata,omitempty"`
	DMSLat      string            `json:"dms_lat,omitempty" yaml:"dms_lat,omitempty"`
	DMSLon      string            `json:"dms_lon,omitempty" yaml:"dms_lon,omitempty"`
	OSMURL      string            `json:"osm_url,omitempty" yaml:"osm_url,omitempty"`
	Components  map[string]string `json:"components,omitempty" yaml:"components,omitempty"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	AddressType string            `json:"addresstype,omitempty" yaml:"addresstype,omitempty"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty"`
	Class       string            `json:"class,omitempty" yaml:"class,omitempty"`
}

// HasCoords reports whether both coordinates are present.
func (c Candidate) HasCoords() bool {
	return c.Lat != nil && c.Lon != nil
}

// HalfCoords reports whether exactly one coordinate is present.
func (c Candidate) HalfCoords() bool {
	return (c.Lat == nil) != (c.Lon == nil)
}

// LanguageAliases holds knowledge-base labels for one language.
type LanguageAliases struct {
	Label       *string  `json:"label" yaml:"label"`
	Description *string  `json:"description" yaml:"description"`
	Aliases     []string `json:"aliases" yaml:"aliases"`
}

// Aliases maps a language code ("en", "ar", "he") to its labels. A nil map
// means the candidate had no knowledge-base id or the lookup failed.
type Aliases map[string]LanguageAliases

// Status classifies the outcome of one provider section.
type Status string

// Section outcomes.
const (
	StatusOK       Status = "ok"
	StatusNoResult Status = "no_result"
	StatusError    Status = "error"
)

// Section is the extractor output for a single provider.
type Section struct {
	Status     Status      `json:"status" yaml:"status"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}

// OKSection wraps extracted candidates.
func OKSection(c []Candidate) Section {
	if c == nil {
		c = []Candidate{}
	}
	return Section{Status: StatusOK, Candidates: c}
}

// NoResultSection reports a provider that answered with zero matches.
func NoResultSection() Section {
	return Section{Status: StatusNoResult, Candidates: []Candidate{}}
}

// ErrorSection reports a provider that failed or returned garbage.
func ErrorSection(reason string) Section {
	return Section{Status: StatusError, Error: reason, Candidates: []Candidate{}}
}

// Extracted maps provider name to its section. A provider missing from the
// map was not queried.
type Extracted map[string]Section
