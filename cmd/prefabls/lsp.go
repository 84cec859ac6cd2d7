package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prefabls/internal/catalog"
	"prefabls/internal/config"
	"prefabls/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Prefab language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Bool("clear-cache", false, "drop the warm catalog cache before starting")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	settings, env, err := loadSettings(cmd, cwd)
	if err != nil {
		return err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if clearCache {
		if err := clearCatalogCache(settings.CacheDir); err != nil {
			return fmt.Errorf("clear catalog cache: %w", err)
		}
	}
	tracer, cleanup, err := setupTracing(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Settings:  settings,
		EnvValues: env,
		LoadSettings: func(root string) (config.Settings, map[string]string, error) {
			return loadSettings(cmd, root)
		},
		Tracer: tracer,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}

// clearCatalogCache drops every warm snapshot under dir; empty dir means the
// user cache dir.
func clearCatalogCache(dir string) error {
	cache, err := catalog.OpenDiskCache(dir)
	if err != nil {
		return err
	}
	return cache.DropAll()
}
