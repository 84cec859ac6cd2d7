package diag

import (
	"slices"

	"prefabls/internal/source"
)

// KeyKind tells whether a diagnostic is about a config or a feature flag.
type KeyKind string

const (
	KeyConfig      KeyKind = "config"
	KeyFeatureFlag KeyKind = "featureFlag"
)

// Payload carries what a follow-up action needs without re-scanning.
type Payload struct {
	Key    string  `json:"key"`
	Kind   KeyKind `json:"kind"`
	Method string  `json:"method"`
}

// Diagnostic is one finding. Span and Range cover the same text in byte and
// line/character coordinates. Diagnostics are comparable with ==.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Span     source.Span
	Range    source.Range
	Data     Payload
}

// Equal compares two diagnostic lists element by element; order matters.
func Equal(a, b []Diagnostic) bool {
	return slices.Equal(a, b)
}
