package detect

const rubyReceiver = `(?:\$prefab|prefab|Prefab)(?:\.instance)?(?:\.with_context\([^()]*\))?`

var rubyPatterns = []callPattern{
	parenless(call(MethodGet, rubyReceiver+`\.get\b`)),
	parenless(call(MethodIsEnabled, rubyReceiver+`\.enabled\?`)),
}

func newRuby() *envRecognizer {
	return &envRecognizer{
		recognizer: &recognizer{
			kind:      KindRuby,
			languages: []string{"ruby"},
			literals:  litQuotes,
			patterns:  rubyPatterns,
			snippet:   `Prefab.get("%s")`,
		},
		providables: []providablePattern{
			lookup(`\bENV\[`, ']'),
			lookupCall(`\bENV\.fetch\(`),
		},
	}
}
