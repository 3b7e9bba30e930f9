package core

import "strings"

// CleanString trims `s`, collapses inner runs of whitespace to a single space
// and optionally lowers it: "  Jane \t Doe " -> "Jane Doe".
func CleanString(s string, lower ...bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
