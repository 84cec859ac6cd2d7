package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const checkCatalog = `
version: 1
configs:
  - key: known.key
    type: config
    valueType: string
    rows:
      - values:
          - value: {string: "x"}
`

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte(checkCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	src := filepath.Join(dir, "app.rb")
	if err := os.WriteFile(src, []byte("Prefab.get(\"known.key\")\nPrefab.get(\"other.key\")\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var out bytes.Buffer
	checkCmd.SetOut(&out)
	t.Cleanup(func() { checkCmd.SetOut(nil) })
	if err := checkCmd.Flags().Set("catalog", catalogPath); err != nil {
		t.Fatalf("set catalog: %v", err)
	}
	if err := checkCmd.Flags().Set("context", "false"); err != nil {
		t.Fatalf("set context: %v", err)
	}
	if err := checkCmd.Flags().Set("path-mode", "basename"); err != nil {
		t.Fatalf("set path-mode: %v", err)
	}
	if err := rootCmd.PersistentFlags().Set("color", "off"); err != nil {
		t.Fatalf("set color: %v", err)
	}

	// called without Execute, so the command carries no context
	err := runCheck(checkCmd, []string{dir})
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected errCheckFailed, got %v", err)
	}
	got := out.String()
	if !strings.Contains(got, `app.rb:2:13: error: Config key "other.key" is not defined [PFX1001]`) {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if strings.Contains(got, "known.key") {
		t.Fatalf("known key reported:\n%s", got)
	}
}

func TestRunCheckWarningsAsErrors(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte(checkCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	src := filepath.Join(dir, "flags.rb")
	if err := os.WriteFile(src, []byte("Prefab.enabled?(\"new-flag\")\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var out bytes.Buffer
	checkCmd.SetOut(&out)
	t.Cleanup(func() {
		checkCmd.SetOut(nil)
		_ = checkCmd.Flags().Set("warnings-as-errors", "false")
	})
	for name, value := range map[string]string{"catalog": catalogPath, "context": "false", "path-mode": "basename"} {
		if err := checkCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	if err := rootCmd.PersistentFlags().Set("color", "off"); err != nil {
		t.Fatalf("set color: %v", err)
	}

	if err := runCheck(checkCmd, []string{src}); err != nil {
		t.Fatalf("a missing flag alone should pass, got %v", err)
	}
	if !strings.Contains(out.String(), "flags.rb:1:18: warning:") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	if err := checkCmd.Flags().Set("warnings-as-errors", "true"); err != nil {
		t.Fatalf("set warnings-as-errors: %v", err)
	}
	if err := runCheck(checkCmd, []string{src}); !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected errCheckFailed, got %v", err)
	}
}
