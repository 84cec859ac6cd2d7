package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"prefabls/internal/detect"
	"prefabls/internal/diag"
	"prefabls/internal/diagnose"
	"prefabls/internal/driver"
	"prefabls/internal/source"
)

const projectDir = "/home/user/project"

func sampleResults(t *testing.T) []driver.FileResult {
	t.Helper()
	path := projectDir + "/src/app.rb"
	doc := source.NewDocument(source.PathToURI(path), "ruby", 0, "s = \"日本\"; Prefab.get(\"missing\")\n")
	locs := detect.DetectMethods(doc)
	if len(locs) != 1 {
		t.Fatalf("expected one call site, got %d", len(locs))
	}
	return []driver.FileResult{
		{Path: path, Doc: doc, Diagnostics: []diag.Diagnostic{diagnose.MissingKeyDiagnostic(locs[0])}},
		{Path: projectDir + "/src/gone.rb", Err: errors.New("no such file")},
	}
}

func TestPrettyAlignsAndMarksKey(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleResults(t), PrettyOpts{Context: true, PathMode: PathModeRelative, BaseDir: projectDir})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if want := `src/app.rb:1:23: error: Config key "missing" is not defined [PFX1001]`; lines[0] != want {
		t.Fatalf("header:\nwant %q\ngot  %q", want, lines[0])
	}
	if want := "    " + strings.Repeat(" ", 24) + "^" + strings.Repeat("~", 6); lines[2] != want {
		t.Fatalf("caret:\nwant %q\ngot  %q", want, lines[2])
	}
	if want := "src/gone.rb:     error: no such file"; lines[3] != want {
		t.Fatalf("load error:\nwant %q\ngot  %q", want, lines[3])
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	if !Summary(&buf, sampleResults(t), PrettyOpts{}) {
		t.Fatal("expected errors to be reported")
	}
	if got := buf.String(); got != "2 errors, 0 warnings in 2 of 2 files\n" {
		t.Fatalf("unexpected summary %q", got)
	}
	buf.Reset()
	if Summary(&buf, []driver.FileResult{{Path: "a.rb"}}, PrettyOpts{}) {
		t.Fatal("clean run reported errors")
	}
	if got := buf.String(); got != "ok 1 file checked\n" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestPathModes(t *testing.T) {
	path := projectDir + "/src/app.rb"
	tests := []struct {
		mode PathMode
		base string
		want string
	}{
		{PathModeAbsolute, "", path},
		{PathModeRelative, projectDir, "src/app.rb"},
		{PathModeBasename, "", "app.rb"},
		{PathModeAuto, "/elsewhere", path},
		{PathModeAuto, projectDir, "src/app.rb"},
	}
	for _, tt := range tests {
		if got := FormatPath(path, tt.mode, tt.base); got != tt.want {
			t.Errorf("FormatPath(%d, %q) = %q, want %q", tt.mode, tt.base, got, tt.want)
		}
	}
	if _, err := ParsePathMode("sideways"); err == nil {
		t.Fatal("expected error for unknown path mode")
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResults(t), JSONOpts{PathMode: PathModeRelative, BaseDir: projectDir}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Files != 2 || len(out.Errors) != 1 {
		t.Fatalf("unexpected output: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Key != "missing" || d.Kind != "config" || d.Code != "PFX1001" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if d.Location.File != "src/app.rb" || d.Location.StartLine != 1 || d.Location.StartCol != 23 || d.Location.EndCol != 30 {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
}
