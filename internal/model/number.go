package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptFloat is a float that may be missing. Providers send coordinates and
// scores as JSON numbers, numeric strings, null, or not at all; OptFloat
// accepts all of them and never fails to decode.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptFloat.
func Float(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// Ptr returns nil when the value is missing.
func (f OptFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler. Undecodable input yields a
// missing value rather than an error so one bad field cannot sink a record.
func (f *OptFloat) UnmarshalJSON(b []byte) error {
	*f = ParseFloat(json.RawMessage(b))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f OptFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ParseFloat coerces v to a number. Supported inputs are Go numeric types,
// numeric strings, json.Number and raw JSON. Everything else, including
// NaN and infinities, is reported as missing.
func ParseFloat(v any) OptFloat {
	var (
		out float64
		ok  bool
	)
	switch t := v.(type) {
	case nil:
		return OptFloat{}
	case float64:
		out, ok = t, true
	case float32:
		out, ok = float64(t), true
	case int:
		out, ok = float64(t), true
	case int64:
		out, ok = float64(t), true
	case json.Number:
		out, ok = parseString(string(t))
	case string:
		out, ok = parseString(t)
	case *float64:
		if t == nil {
			return OptFloat{}
		}
		out, ok = *t, true
	case json.RawMessage:
		out, ok = parseRaw(t)
	case []byte:
		out, ok = parseRaw(t)
	}
	if !ok || math.IsNaN(out) || math.IsInf(out, 0) {
		return OptFloat{}
	}
	return OptFloat{Value: out, Valid: true}
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseRaw(b []byte) (float64, bool) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return 0, false
		}
		return parseString(str)
	}
	return parseString(s)
}
