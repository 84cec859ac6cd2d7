package detect

import (
	"fmt"

	"prefabls/internal/source"
)

// MethodType identifies which accessor a call site invokes.
type MethodType uint8

const (
	// MethodNone means no accessor call was recognized.
	MethodNone MethodType = iota
	// MethodGet is a config value lookup.
	MethodGet
	// MethodIsEnabled is a feature flag check.
	MethodIsEnabled
)

func (m MethodType) String() string {
	switch m {
	case MethodGet:
		return "get"
	case MethodIsEnabled:
		return "isEnabled"
	default:
		return "none"
	}
}

func (m MethodType) GoString() string {
	return fmt.Sprintf("MethodType(%s)", m.String())
}

// CompletionCategory selects which catalog keys are offered at a cursor.
type CompletionCategory uint8

const (
	CompletionNone CompletionCategory = iota
	// CompletionConfigs offers keys of non-flag configs.
	CompletionConfigs
	// CompletionFeatureFlags offers feature flag keys.
	CompletionFeatureFlags
)

func (c CompletionCategory) String() string {
	switch c {
	case CompletionConfigs:
		return "configs"
	case CompletionFeatureFlags:
		return "featureFlags"
	default:
		return "none"
	}
}

func completionFor(m MethodType) CompletionCategory {
	switch m {
	case MethodGet:
		return CompletionConfigs
	case MethodIsEnabled:
		return CompletionFeatureFlags
	default:
		return CompletionNone
	}
}

// MethodLocation is one detected accessor call. KeyRange always lies within
// Range.
type MethodLocation struct {
	Type     MethodType
	Range    source.Range
	Key      string
	KeyRange source.Range

	Span    source.Span
	KeySpan source.Span
}

// Providable is an environment variable lookup that could be served by a
// provided config instead.
type Providable struct {
	Name  string
	Range source.Range
	Span  source.Span
}
