package detect

import (
	"regexp"
	"strings"

	"prefabls/internal/source"
)

var erbTag = regexp.MustCompile(`(?s)<%.*?%>`)

// newYaml recognizes Ruby accessor calls embedded in ERB tags of YAML files.
func newYaml() *recognizer {
	return &recognizer{
		kind:      KindYaml,
		languages: []string{"yaml"},
		literals:  litQuotes,
		patterns:  rubyPatterns,
		snippet:   `<%%= Prefab.get("%s") %%>`,
		applies: func(text string) bool {
			return strings.Contains(text, "<%") && strings.Contains(text, "Prefab")
		},
		within:   erbRegions,
		prefixOK: insideOpenTag,
	}
}

func erbRegions(text string) []source.Span {
	var out []source.Span
	for _, m := range erbTag.FindAllStringIndex(text, -1) {
		out = append(out, source.SpanOf(m[0], m[1]))
	}
	return out
}

func insideOpenTag(prefix string) bool {
	return strings.LastIndex(prefix, "<%") > strings.LastIndex(prefix, "%>")
}
