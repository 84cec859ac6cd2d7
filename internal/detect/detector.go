package detect

import "prefabls/internal/source"

// Built-in recognizers, one per supported language variant.
var (
	Ruby       = newRuby()
	React      = newReact()
	JavaScript = newJavaScript()
	Node       = newNode()
	Java       = newJava()
	Python     = newPython()
	Yaml       = newYaml()
)

// Detector selects the first applicable provider in a fixed priority order.
type Detector struct {
	providers []Provider
}

// New returns a detector trying providers in the given order. With no
// arguments the built-in order is used.
func New(providers ...Provider) *Detector {
	if len(providers) == 0 {
		providers = []Provider{Ruby, React, JavaScript, Node, Java, Python, Yaml}
	}
	return &Detector{providers: providers}
}

// Default is the detector used by the package-level helpers.
var Default = New()

// ProviderFor returns the provider handling doc, or Null.
func (d *Detector) ProviderFor(doc *source.Document) Provider {
	if doc == nil {
		return Null
	}
	for _, p := range d.providers {
		if p.IsApplicable(doc) {
			return p
		}
	}
	return Null
}

func (d *Detector) DetectMethods(doc *source.Document) []MethodLocation {
	return d.ProviderFor(doc).DetectMethods(doc)
}

func (d *Detector) DetectMethod(doc *source.Document, pos source.Position) MethodType {
	return d.ProviderFor(doc).DetectMethod(doc, pos)
}

func (d *Detector) CompletionType(doc *source.Document, pos source.Position) CompletionCategory {
	return d.ProviderFor(doc).CompletionType(doc, pos)
}

// DetectProvidables returns environment variable lookups when the selected
// provider supports them.
func (d *Detector) DetectProvidables(doc *source.Document) []Providable {
	if pd, ok := d.ProviderFor(doc).(ProvidableDetector); ok {
		return pd.DetectProvidables(doc)
	}
	return nil
}

// ConfigGet renders the get-call for key in the language of doc.
func (d *Detector) ConfigGet(doc *source.Document, key string) (string, bool) {
	if cg, ok := d.ProviderFor(doc).(ConfigGetter); ok {
		return cg.ConfigGet(key), true
	}
	return "", false
}

// DetectMethods returns every accessor call in doc.
func DetectMethods(doc *source.Document) []MethodLocation {
	return Default.DetectMethods(doc)
}

// DetectMethod returns the accessor whose key literal is open at pos,
// looking only at the line up to the cursor.
func DetectMethod(doc *source.Document, pos source.Position) MethodType {
	return Default.DetectMethod(doc, pos)
}

// CompletionType maps DetectMethod onto a completion category.
func CompletionType(doc *source.Document, pos source.Position) CompletionCategory {
	return Default.CompletionType(doc, pos)
}
