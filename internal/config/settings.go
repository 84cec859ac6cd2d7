package config

import (
	"errors"
	"fmt"
	"time"

	"prefabls/internal/trace"
)

// FileName is the project configuration file looked up from the workspace.
const FileName = "prefabls.toml"

const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultMaxDiagnostics = 100
	DefaultEnvFile        = ".env"
)

var (
	// ErrInvalidDebounce reports a negative or unparsable debounce delay.
	ErrInvalidDebounce = errors.New("invalid debounce")
	// ErrInvalidMaxDiagnostics reports a negative diagnostics cap.
	ErrInvalidMaxDiagnostics = errors.New("invalid max diagnostics")
)

// Settings configures the server and the check command.
type Settings struct {
	Debounce       time.Duration
	MaxDiagnostics int
	// CatalogPath is the snapshot file; empty disables the catalog.
	CatalogPath string
	// CacheDir holds the warm snapshot cache; empty means the user cache dir.
	CacheDir     string
	TraceLevel   string
	TraceFormat  string
	EnvFile      string
	Environments []string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Debounce:       DefaultDebounce,
		MaxDiagnostics: DefaultMaxDiagnostics,
		TraceLevel:     trace.LevelError.String(),
		TraceFormat:    trace.FormatText.String(),
		EnvFile:        DefaultEnvFile,
	}
}

// IsZero reports whether no field is set.
func (s Settings) IsZero() bool {
	return s.Debounce == 0 && s.MaxDiagnostics == 0 && s.CatalogPath == "" &&
		s.CacheDir == "" && s.TraceLevel == "" && s.TraceFormat == "" &&
		s.EnvFile == "" && s.Environments == nil
}

// Validate checks value ranges and the trace options.
func (s Settings) Validate() error {
	if s.Debounce < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDebounce, s.Debounce)
	}
	if s.MaxDiagnostics < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDiagnostics, s.MaxDiagnostics)
	}
	if _, err := trace.ParseLevel(s.TraceLevel); err != nil {
		return err
	}
	if _, err := trace.ParseFormat(s.TraceFormat); err != nil {
		return err
	}
	return nil
}

// Trace builds the tracer configuration writing to stderr. ringSize > 0 also
// keeps the latest events in memory.
func (s Settings) Trace(ringSize int) (trace.Config, error) {
	level, err := trace.ParseLevel(s.TraceLevel)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(s.TraceFormat)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Format: format, RingSize: ringSize}, nil
}
