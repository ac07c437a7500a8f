package model

// FusionResult is the single answer chosen by the fusion filter.
type FusionResult struct {
	Service    string  `json:"service" yaml:"service"`
	Name       string  `json:"name" yaml:"name"`
	Lat        float64 `json:"lat" yaml:"lat"`
	Lon        float64 `json:"lon" yaml:"lon"`
	Aliases    Aliases `json:"knowledge_base_aliases" yaml:"knowledge_base_aliases"`
	Importance float64 `json:"importance" yaml:"importance"`
	// Query is the place string the caller resolved, when annotated.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

// WithQuery returns a copy annotated with the originating query.
func (r FusionResult) WithQuery(q string) FusionResult {
	r.Query = q
	return r
}
