package detect

import "regexp"

var pythonImport = regexp.MustCompile(`(?m)^[ \t]*(?:import|from)[ \t]+prefab_cloud_python\b`)

const pythonReceiver = `(?:prefab|client|prefab_cloud_python\.get_client\(\s*\))`

func newPython() *envRecognizer {
	return &envRecognizer{
		recognizer: &recognizer{
			kind:      KindPython,
			languages: []string{"python"},
			literals:  litQuotes | litTriple,
			patterns: []callPattern{
				call(MethodGet, pythonReceiver+`\.get\b`),
				call(MethodIsEnabled, pythonReceiver+`\.enabled\b`),
			},
			snippet: `prefab.get("%s")`,
			applies: pythonImport.MatchString,
		},
		providables: []providablePattern{
			lookup(`\bos\.environ\[`, ']'),
			lookupCall(`\bos\.environ\.get\(`),
			lookupCall(`\bos\.getenv\(`),
		},
	}
}
