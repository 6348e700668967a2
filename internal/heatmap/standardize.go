package heatmap

import (
	"fmt"
	"strings"
)

// Standardize normalizes a free-text place name into the canonical key used
// to join districts across independently sourced datasets: lowercase,
// underscores and hyphens become spaces, whitespace runs collapse to single
// spaces. Idempotent, never fails; nil yields "".
func Standardize(raw any) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// PathKey converts an already-standardized name into the path-safe form used
// to locate per-state indicator documents (spaces become underscores).
func PathKey(standardized string) string {
	return strings.ReplaceAll(standardized, " ", "_")
}
