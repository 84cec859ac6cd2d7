package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindFileWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "app", "models")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, ok, err := FindFile(nested)
	if err != nil || !ok {
		t.Fatalf("expected to find config, got ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestLoadFileOnlyOverridesDefinedKeys(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	writeFile(t, path, `
[catalog]
path = "config/prefab.yaml"

[lsp]
debounce = "150ms"

[hover]
environments = ["production", " ", "staging"]
`)
	got, err := LoadFile(path, Defaults())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CatalogPath != filepath.Join(root, "config", "prefab.yaml") {
		t.Fatalf("catalog path not resolved: %q", got.CatalogPath)
	}
	if got.Debounce != 150*time.Millisecond {
		t.Fatalf("unexpected debounce %v", got.Debounce)
	}
	if got.MaxDiagnostics != DefaultMaxDiagnostics || got.TraceLevel != "error" {
		t.Fatalf("undefined keys must keep defaults: %+v", got)
	}
	if !slices.Equal(got.Environments, []string{"production", "staging"}) {
		t.Fatalf("unexpected environments %v", got.Environments)
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	root := t.TempDir()
	cases := map[string]string{
		"debounce": "[lsp]\ndebounce = \"soon\"\n",
		"level":    "[trace]\nlevel = \"loud\"\n",
		"unknown":  "[lsp]\nport = 1\n",
		"syntax":   "[lsp\n",
	}
	for name, content := range cases {
		path := filepath.Join(root, name, FileName)
		writeFile(t, path, content)
		if _, err := LoadFile(path, Defaults()); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvCatalog:        "/tmp/prefab.yaml",
		EnvMaxDiagnostics: "5",
		EnvEnvironments:   "staging, production",
		EnvTrace:          "debug",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	got, err := ApplyEnv(Defaults(), lookup)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.CatalogPath != "/tmp/prefab.yaml" || got.MaxDiagnostics != 5 || got.TraceLevel != "debug" {
		t.Fatalf("unexpected settings %+v", got)
	}
	if !slices.Equal(got.Environments, []string{"staging", "production"}) {
		t.Fatalf("unexpected environments %v", got.Environments)
	}

	env[EnvMaxDiagnostics] = "many"
	if _, err := ApplyEnv(Defaults(), lookup); !errors.Is(err, ErrInvalidMaxDiagnostics) {
		t.Fatalf("expected ErrInvalidMaxDiagnostics, got %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[env]\nfile = \"local.env\"\n")
	writeFile(t, filepath.Join(root, "local.env"), "DATABASE_URL=postgres://localhost/app\n")

	settings, values, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if values["DATABASE_URL"] != "postgres://localhost/app" {
		t.Fatalf("dotenv values not returned: %v", values)
	}
	if settings.Debounce != DefaultDebounce {
		t.Fatalf("unexpected debounce %v", settings.Debounce)
	}
}

func TestLoadWithoutFiles(t *testing.T) {
	settings, values, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no env values, got %v", values)
	}
	if settings.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("expected defaults, got %+v", settings)
	}
}

func TestEnvironPrefersProcess(t *testing.T) {
	t.Setenv("PREFABLS_TEST_LOOKUP", "process")
	lookup := Environ(map[string]string{"PREFABLS_TEST_LOOKUP": "file", "ONLY_FILE": "x"})
	if v, _ := lookup("PREFABLS_TEST_LOOKUP"); v != "process" {
		t.Fatalf("process env should win, got %q", v)
	}
	if v, ok := lookup("ONLY_FILE"); !ok || v != "x" {
		t.Fatalf("file value expected, got %q %v", v, ok)
	}
}

func TestApplyClient(t *testing.T) {
	raw := json.RawMessage(`{"prefab":{"debounce":"1s","maxDiagnostics":3,"environments":["dev"]}}`)
	got, err := ApplyClient(Defaults(), raw)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Debounce != time.Second || got.MaxDiagnostics != 3 || !slices.Equal(got.Environments, []string{"dev"}) {
		t.Fatalf("unexpected settings %+v", got)
	}
	if _, err := ApplyClient(Defaults(), json.RawMessage(`{"prefab":{"maxDiagnostics":-1}}`)); !errors.Is(err, ErrInvalidMaxDiagnostics) {
		t.Fatalf("expected ErrInvalidMaxDiagnostics, got %v", err)
	}
	same, err := ApplyClient(Defaults(), json.RawMessage(`{"other":{}}`))
	if err != nil || same.Debounce != DefaultDebounce {
		t.Fatalf("unrelated sections must be ignored: %+v %v", same, err)
	}
}
