package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prefabls/internal/catalog"
	"prefabls/internal/diagfmt"
	"prefabls/internal/driver"
	"prefabls/internal/trace"
)

var errCheckFailed = errors.New("missing config keys found")

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Report config and feature flag keys missing from the catalog",
	Long: `Scan source files (recursively for directories) for Prefab accessor calls
and report every key that the catalog snapshot does not define. Exits with
status 1 when a config key is missing or a file cannot be read, and also on
missing feature flags with --warnings-as-errors.`,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	checkCmd.Flags().String("catalog", "", "catalog snapshot file (defaults to [catalog] path of prefabls.toml)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("path-mode", "auto", "how file paths are shown (auto|absolute|relative|basename)")
	checkCmd.Flags().Bool("context", true, "print the source line under each diagnostic")
	checkCmd.Flags().Bool("warnings-as-errors", false, "exit with status 1 on missing feature flags too")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	settings, _, err := loadSettings(cmd, cwd)
	if err != nil {
		return err
	}

	catalogPath, err := cmd.Flags().GetString("catalog")
	if err != nil {
		return fmt.Errorf("failed to get catalog flag: %w", err)
	}
	if catalogPath == "" {
		catalogPath = settings.CatalogPath
	}
	if catalogPath == "" {
		return fmt.Errorf("no catalog: pass --catalog or set [catalog] path in prefabls.toml")
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, err := diagfmt.ParsePathMode(pathModeStr)
	if err != nil {
		return err
	}
	withContext, err := cmd.Flags().GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	tracer, cleanup, err := setupTracing(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := catalog.LoadSnapshot(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	keys := catalog.New()
	keys.Replace(snap)

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := driver.ListFiles(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = trace.WithTracer(ctx, tracer)
	results, err := driver.Check(ctx, files, driver.CheckOptions{
		Keys:           keys,
		MaxDiagnostics: settings.MaxDiagnostics,
		Jobs:           jobs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := false
	for _, r := range results {
		if r.HasErrors() || strict && r.HasWarnings() {
			failed = true
			break
		}
	}
	if format == "json" {
		if err := diagfmt.JSON(out, results, diagfmt.JSONOpts{PathMode: pathMode, BaseDir: cwd}); err != nil {
			return err
		}
	} else {
		opts := diagfmt.PrettyOpts{
			Color:    colored,
			Context:  withContext,
			PathMode: pathMode,
			BaseDir:  cwd,
		}
		diagfmt.Pretty(out, results, opts)
		diagfmt.Summary(out, results, opts)
	}
	if failed {
		return errCheckFailed
	}
	return nil
}
