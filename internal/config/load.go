package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileSettings struct {
	Catalog struct {
		Path     string `toml:"path"`
		CacheDir string `toml:"cache_dir"`
	} `toml:"catalog"`
	LSP struct {
		Debounce       string `toml:"debounce"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
	} `toml:"lsp"`
	Trace struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"trace"`
	Env struct {
		File string `toml:"file"`
	} `toml:"env"`
	Hover struct {
		Environments []string `toml:"environments"`
	} `toml:"hover"`
}

// FindFile walks up from startDir to locate prefabls.toml.
func FindFile(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile applies the keys defined in the TOML file at path over base.
// Relative paths are resolved against the file's directory.
func LoadFile(path string, base Settings) (Settings, error) {
	var cfg fileSettings
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	dir := filepath.Dir(path)
	out := base
	if meta.IsDefined("catalog", "path") {
		out.CatalogPath = resolvePath(dir, cfg.Catalog.Path)
	}
	if meta.IsDefined("catalog", "cache_dir") {
		out.CacheDir = resolvePath(dir, cfg.Catalog.CacheDir)
	}
	if meta.IsDefined("lsp", "debounce") {
		d, err := parseDebounce(cfg.LSP.Debounce)
		if err != nil {
			return base, fmt.Errorf("%s: %w", path, err)
		}
		out.Debounce = d
	}
	if meta.IsDefined("lsp", "max_diagnostics") {
		out.MaxDiagnostics = cfg.LSP.MaxDiagnostics
	}
	if meta.IsDefined("trace", "level") {
		out.TraceLevel = cfg.Trace.Level
	}
	if meta.IsDefined("trace", "format") {
		out.TraceFormat = cfg.Trace.Format
	}
	if meta.IsDefined("env", "file") {
		out.EnvFile = resolvePath(dir, cfg.Env.File)
	}
	if meta.IsDefined("hover", "environments") {
		out.Environments = normalizeList(cfg.Hover.Environments)
	}
	if err := out.Validate(); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Load resolves settings for a workspace: defaults, then prefabls.toml found
// from root upwards, then the workspace .env file and the process
// environment. It also returns the variables read from the .env file.
func Load(root string) (Settings, map[string]string, error) {
	settings := Defaults()
	path, ok, err := FindFile(root)
	if err != nil {
		return settings, nil, err
	}
	if ok {
		if settings, err = LoadFile(path, settings); err != nil {
			return Defaults(), nil, err
		}
	}
	envPath := settings.EnvFile
	if envPath != "" && !filepath.IsAbs(envPath) && root != "" {
		envPath = filepath.Join(root, envPath)
	}
	values, err := ReadEnvFile(envPath)
	if err != nil {
		return settings, nil, err
	}
	settings, err = ApplyEnv(settings, Environ(values))
	if err != nil {
		return settings, values, err
	}
	return settings, values, nil
}

func resolvePath(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}

func parseDebounce(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDebounce, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDebounce, raw)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
