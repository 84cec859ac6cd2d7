package detect

import "strings"

const browserPackage = "@prefab-cloud/prefab-cloud-js"

func newJavaScript() *recognizer {
	return &recognizer{
		kind:      KindJavaScript,
		languages: jsLanguages,
		literals:  litQuotes | litBacktick,
		patterns: []callPattern{
			call(MethodGet, `(?:window\.)?prefab\.get\b`),
			call(MethodIsEnabled, `(?:window\.)?prefab\.isEnabled\b`),
		},
		snippet: `prefab.get("%s")`,
		applies: func(text string) bool {
			return strings.Contains(text, browserPackage) ||
				strings.Contains(text, "window.prefab") ||
				BrowserWins(text)
		},
	}
}
