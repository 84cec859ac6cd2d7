package source

import (
	"net/url"
	"path/filepath"
)

// URIToPath converts a file:// URI into an absolute filesystem path. Non-file
// schemes yield "".
func URIToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// PathToURI converts a filesystem path into a file:// URI.
func PathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: normalizePath(path)}
	return u.String()
}

// CanonicalURI normalizes file URIs so the same document always maps to the
// same key. Other schemes (untitled:, etc.) pass through unchanged.
func CanonicalURI(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}
	if path := URIToPath(uri); path != "" {
		return PathToURI(path)
	}
	return uri
}
