package detect

import "prefabls/internal/source"

// Provider recognizes accessor calls for one source language variant.
type Provider interface {
	Name() string
	IsApplicable(doc *source.Document) bool
	DetectMethod(doc *source.Document, pos source.Position) MethodType
	DetectMethods(doc *source.Document) []MethodLocation
	CompletionType(doc *source.Document, pos source.Position) CompletionCategory
}

// ConfigGetter is implemented by providers that can render the canonical
// get-call for a key in their language.
type ConfigGetter interface {
	ConfigGet(key string) string
}

// ProvidableDetector is implemented by providers that can locate environment
// variable lookups.
type ProvidableDetector interface {
	DetectProvidables(doc *source.Document) []Providable
}

// nullProvider matches nothing. It is selected when no other provider applies.
type nullProvider struct{}

func (nullProvider) Name() string                       { return "none" }
func (nullProvider) IsApplicable(*source.Document) bool { return true }
func (nullProvider) DetectMethod(*source.Document, source.Position) MethodType {
	return MethodNone
}
func (nullProvider) DetectMethods(*source.Document) []MethodLocation { return nil }
func (nullProvider) CompletionType(*source.Document, source.Position) CompletionCategory {
	return CompletionNone
}

// Null is the provider that never detects anything.
var Null Provider = nullProvider{}
