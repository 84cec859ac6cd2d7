package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables overriding the file settings.
const (
	EnvCatalog        = "PREFABLS_CATALOG"
	EnvCacheDir       = "PREFABLS_CACHE_DIR"
	EnvDebounce       = "PREFABLS_DEBOUNCE"
	EnvMaxDiagnostics = "PREFABLS_MAX_DIAGNOSTICS"
	EnvTrace          = "PREFABLS_TRACE"
	EnvTraceFormat    = "PREFABLS_TRACE_FORMAT"
	EnvEnvironments   = "PREFABLS_ENVIRONMENTS"
)

// ReadEnvFile parses a dotenv file without touching the process
// environment. A missing file yields no values.
func ReadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read env file: %w", path, err)
	}
	return values, nil
}

// Environ looks up variables in the process environment first and falls
// back to values, usually read from a .env file.
func Environ(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := values[name]
		return v, ok
	}
}

// ApplyEnv applies PREFABLS_* variables found through lookup.
func ApplyEnv(s Settings, lookup func(string) (string, bool)) (Settings, error) {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	out := s
	if v, ok := get(EnvCatalog); ok {
		out.CatalogPath = v
	}
	if v, ok := get(EnvCacheDir); ok {
		out.CacheDir = v
	}
	if v, ok := get(EnvDebounce); ok {
		d, err := parseDebounce(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvDebounce, err)
		}
		out.Debounce = d
	}
	if v, ok := get(EnvMaxDiagnostics); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w: %q", EnvMaxDiagnostics, ErrInvalidMaxDiagnostics, v)
		}
		out.MaxDiagnostics = n
	}
	if v, ok := get(EnvTrace); ok {
		out.TraceLevel = v
	}
	if v, ok := get(EnvTraceFormat); ok {
		out.TraceFormat = v
	}
	if v, ok := get(EnvEnvironments); ok {
		out.Environments = normalizeList(strings.Split(v, ","))
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}
