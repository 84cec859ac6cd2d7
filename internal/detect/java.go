package detect

import "strings"

const javaReceiver = `[\w$]*(?:configClient|ConfigClient|featureFlagClient|FeatureFlagClient|prefab)(?:\(\s*\))?`

func newJava() *envRecognizer {
	return &envRecognizer{
		recognizer: &recognizer{
			kind:      KindJava,
			languages: []string{"java"},
			literals:  litDouble | litTriple,
			patterns: []callPattern{
				call(MethodGet, javaReceiver+`\.(?:get|liveStringList|liveString|liveLong|liveDouble|liveBoolean)\b`),
				call(MethodIsEnabled, javaReceiver+`\.featureIsOn(?:For)?\b`),
			},
			snippet: `configClient.get("%s")`,
			applies: func(text string) bool {
				return strings.Contains(text, "import cloud.prefab")
			},
		},
		providables: []providablePattern{
			lookupCall(`\bSystem\.getenv\(`),
		},
	}
}
