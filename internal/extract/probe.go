package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// errorReason reports whether raw is an error marker or a provider error
// object, returning the reason.
func errorReason(raw json.RawMessage) (string, bool) {
	if !gjson.ValidBytes(raw) {
		return "malformed response", true
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return "", false
	}
	e := res.Get("error")
	if !e.Exists() {
		return "", false
	}
	if e.IsObject() {
		if msg := e.Get("message").String(); msg != "" {
			return msg, true
		}
		return e.Raw, true
	}
	if msg := e.String(); msg != "" {
		return msg, true
	}
	return "unknown error", true
}

// stringList renders a JSON array of strings or numbers as strings, dropping
// nulls and empty entries.
func stringList(items []json.RawMessage) []string {
	var out []string
	for _, raw := range items {
		r := gjson.ParseBytes(raw)
		var s string
		switch r.Type {
		case gjson.String:
			s = strings.TrimSpace(r.Str)
		case gjson.Number:
			s = strconv.FormatFloat(r.Num, 'f', -1, 64)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
