// Package normalize provides field-level cleanup and validation for values
// decoded from ingest files: whitespace normalization, RUT checksum
// validation, flexible date parsing, and boolean/status coercion.
//
// Every function in this package is pure and total: bad input yields a
// zero value plus an ok=false (or just false), never a panic.
package normalize

import (
	"regexp"
	"strings"
)

var spaceRuns = regexp.MustCompile(`\s+`)

// Spaces collapses internal whitespace runs to a single space and trims
// leading/trailing whitespace.
func Spaces(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}

// Bool reports whether the value is the literal "true", case-insensitive,
// after whitespace normalization. Anything else is false.
func Bool(s string) bool {
	return strings.EqualFold(Spaces(s), "true")
}

// ApprovedStatus converts an inspection status token to a boolean.
// "Aprobada" means approved; "Rechazada", "No Aplica" and everything
// else map to false.
func ApprovedStatus(s string) bool {
	return strings.EqualFold(Spaces(s), "Aprobada")
}
