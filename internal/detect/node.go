package detect

import (
	"regexp"
	"strings"
)

const nodePackage = "@prefab-cloud/prefab-cloud-node"

// inContextParam captures the callback parameter of
// `prefab.inContext(ctx, (p) => ...)`, with or without parentheses.
var inContextParam = regexp.MustCompile(`\.inContext\([^()]*?,\s*(?:async\s+)?(?:\(\s*([A-Za-z_$][\w$]*)\s*\)|([A-Za-z_$][\w$]*))\s*=>`)

func newNode() *envRecognizer {
	return &envRecognizer{
		recognizer: &recognizer{
			kind:      KindNode,
			languages: []string{"javascript", "typescript"},
			literals:  litQuotes | litBacktick,
			patterns: []callPattern{
				call(MethodGet, `[\w$]*[pP]refab\.get\b`),
				call(MethodIsEnabled, `[\w$]*[pP]refab\.isFeatureEnabled\b`),
			},
			snippet: `prefab.get("%s")`,
			applies: func(text string) bool {
				return strings.Contains(text, nodePackage) && !BrowserWins(text)
			},
			dynamic: inContextPatterns,
		},
		providables: []providablePattern{
			lookupNamed(`\bprocess\.env\.([A-Za-z_][A-Za-z0-9_]*)`),
			lookup(`\bprocess\.env\[`, ']'),
		},
	}
}

// inContextPatterns builds call patterns for every callback parameter bound
// by inContext in text.
func inContextPatterns(text string) []callPattern {
	var out []callPattern
	seen := map[string]bool{}
	for _, m := range inContextParam.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name == "" || seen[name] || strings.HasSuffix(strings.ToLower(name), "prefab") {
			continue
		}
		seen[name] = true
		quoted := regexp.QuoteMeta(name)
		out = append(out,
			bare(MethodGet, quoted+`\.get\b`),
			bare(MethodIsEnabled, quoted+`\.isFeatureEnabled\b`),
		)
	}
	return out
}
