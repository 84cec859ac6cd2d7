package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths relative to BaseDir when they live under it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode accepts auto, absolute, relative and basename.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "relative", "rel":
		return PathModeRelative, nil
	case "basename", "base":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q", s)
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	Context  bool
	PathMode PathMode
	BaseDir  string
	Width    uint8 // max location column width, 0 means unlimited
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	Max      int // output cap, 0 means unlimited
}

// FormatPath renders path according to mode. Relative modes fall back to the
// cleaned path when it cannot be expressed relative to base.
func FormatPath(path string, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		if base == "" {
			return filepath.Clean(path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			break
		}
		absBase, err := filepath.Abs(base)
		if err != nil {
			break
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil {
			break
		}
		if mode == PathModeAuto && strings.HasPrefix(rel, "..") {
			return abs
		}
		return rel
	}
	return filepath.Clean(path)
}
