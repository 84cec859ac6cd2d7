package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"prefabls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "prefabls",
	Short: "Prefab language server and config key checker",
	Long:  `prefabls serves hover, completion and diagnostics for Prefab config and feature flag keys`,
}

func init() {
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = from config)")
	rootCmd.PersistentFlags().String("trace", "", "trace level override (off|error|info|debug)")
}

// main sets the version and executes the root command. A failing command
// exits with status 1.
func main() {
	rootCmd.Version = version.Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("unknown color mode %q (must be auto, on or off)", mode)
}
