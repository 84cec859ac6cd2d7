package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefabls/internal/config"
	"prefabls/internal/trace"
)

// traceRingSize is the number of recent events kept for panic dumps.
const traceRingSize = 256

// loadSettings resolves settings for dir and applies the persistent flag
// overrides.
func loadSettings(cmd *cobra.Command, dir string) (config.Settings, map[string]string, error) {
	settings, env, err := config.Load(dir)
	if err != nil {
		return config.Settings{}, nil, err
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("max-diagnostics") {
		n, err := flags.GetInt("max-diagnostics")
		if err != nil {
			return config.Settings{}, nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
		settings.MaxDiagnostics = n
	}
	if flags.Changed("trace") {
		level, err := flags.GetString("trace")
		if err != nil {
			return config.Settings{}, nil, fmt.Errorf("failed to get trace flag: %w", err)
		}
		settings.TraceLevel = level
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, nil, err
	}
	return settings, env, nil
}

// setupTracing builds the tracer for settings. The returned cleanup flushes
// and closes it.
func setupTracing(settings config.Settings) (trace.Tracer, func(), error) {
	cfg, err := settings.Trace(traceRingSize)
	if err != nil {
		return nil, nil, err
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
