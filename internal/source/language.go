package source

import (
	"path/filepath"
	"strings"
)

// extToLanguage maps file extensions to LSP language identifiers.
var extToLanguage = map[string]string{
	".rb":   "ruby",
	".rake": "ruby",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascriptreact",
	".ts":   "typescript",
	".mts":  "typescript",
	".cts":  "typescript",
	".tsx":  "typescriptreact",
	".java": "java",
	".py":   "python",
	".yml":  "yaml",
	".yaml": "yaml",
}

// LanguageForPath returns the language identifier for a file path based on its
// extension. Returns ("", false) if the extension is not recognized.
func LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}
