package detect

import "strings"

func newReact() *recognizer {
	return &recognizer{
		kind:      KindReact,
		languages: jsLanguages,
		literals:  litQuotes | litBacktick,
		patterns: []callPattern{
			bare(MethodGet, `get\b`),
			call(MethodGet, `usePrefab\(\s*\)\.get\b`),
			call(MethodGet, `prefab\.get\b`),
			bare(MethodIsEnabled, `isEnabled\b`),
			call(MethodIsEnabled, `usePrefab\(\s*\)\.isEnabled\b`),
			call(MethodIsEnabled, `prefab\.isEnabled\b`),
		},
		snippet: `get("%s")`,
		applies: func(text string) bool {
			return strings.Contains(text, "usePrefab(")
		},
	}
}
