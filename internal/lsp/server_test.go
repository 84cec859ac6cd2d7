package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"prefabls/internal/catalog"
	"prefabls/internal/detect"
	"prefabls/internal/source"
	"prefabls/internal/trace"
)

func frame(t *testing.T, msgs ...string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		if err := writeMessage(&buf, []byte(m)); err != nil {
			t.Fatalf("frame: %v", err)
		}
	}
	return &buf
}

func TestRunLifecycle(t *testing.T) {
	in := frame(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"initialized","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"textDocument/definition","params":{}}`,
		`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	var out bytes.Buffer
	s := NewServer(in, &out, ServerOptions{})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	msgs := drain(t, &out)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(msgs))
	}
	var init initializeResult
	if err := json.Unmarshal(msgs[0].Result, &init); err != nil {
		t.Fatalf("decode initialize: %v", err)
	}
	caps := init.Capabilities
	if !caps.HoverProvider || caps.CompletionProvider == nil || caps.CodeActionProvider == nil || caps.TextDocumentSync.Change != 2 {
		t.Fatalf("unexpected capabilities %+v", caps)
	}
	if msgs[1].Error == nil || msgs[1].Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", msgs[1])
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	s := NewServer(frame(t, `{"jsonrpc":"2.0","method":"exit"}`), io.Discard, ServerOptions{})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestPublishOnlyWhenChanged(t *testing.T) {
	cat := readyCatalog(&catalog.ConfigEntry{Key: "known.key", Type: catalog.ConfigTypeConfig})
	s, out := newTestServer(t, ServerOptions{Catalog: cat})
	uri := source.PathToURI(filepath.Join(t.TempDir(), "app.rb"))

	openDoc(t, s, uri, "ruby", `url = Prefab.get("unknown.key")`)
	pubs := publishes(t, drain(t, out))
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 1 {
		t.Fatalf("expected one publish with one diagnostic, got %+v", pubs)
	}
	d := pubs[0].Diagnostics[0]
	if d.Code != "PFX1001" || d.Severity != 1 || d.Data == nil || d.Data.Key != "unknown.key" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Range.Start != (position{Line: 0, Character: 18}) || d.Range.End != (position{Line: 0, Character: 29}) {
		t.Fatalf("diagnostic should cover the key, got %+v", d.Range)
	}

	// an edit that leaves the call untouched publishes nothing
	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{Line: 0, Character: 31}, End: position{Line: 0, Character: 31}},
			Text:  " # db",
		}},
	})
	s.runDiagnostics(uri)
	if pubs := publishes(t, drain(t, out)); len(pubs) != 0 {
		t.Fatalf("unchanged diagnostics must not be republished, got %+v", pubs)
	}

	notify(t, s, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: uri, Version: 3},
		ContentChanges: []textDocumentContentChangeEvent{{Text: `url = Prefab.get("known.key")`}},
	})
	s.runDiagnostics(uri)
	pubs = publishes(t, drain(t, out))
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("fixing the key should clear diagnostics, got %+v", pubs)
	}
}

func TestDiagnosticsWaitForCatalog(t *testing.T) {
	cat := catalog.New()
	s, out := newTestServer(t, ServerOptions{Catalog: cat})
	uri := "file:///tmp/flags.py"

	openDoc(t, s, uri, "python", "import prefab_cloud_python\nprefab.enabled(\"beta\")\n")
	if pubs := publishes(t, drain(t, out)); len(pubs) != 0 {
		t.Fatalf("no diagnostics before the catalog is ready, got %+v", pubs)
	}

	cat.Replace(&catalog.Snapshot{})
	s.awaitCatalog(context.Background())
	pubs := publishes(t, drain(t, out))
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 1 {
		t.Fatalf("expected diagnostics once ready, got %+v", pubs)
	}
	if d := pubs[0].Diagnostics[0]; d.Severity != 2 || d.Code != "PFX1002" {
		t.Fatalf("missing flag should be a warning, got %+v", d)
	}
}

func TestDidCloseForgetsDocument(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{Catalog: readyCatalog()})
	uri := "file:///tmp/app.rb"
	openDoc(t, s, uri, "ruby", `Prefab.get("a")`)
	drain(t, out)
	if !s.scheduler.Pending(uri) {
		t.Fatal("open document should have a pending tail")
	}

	notify(t, s, "textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}})
	pubs := publishes(t, drain(t, out))
	if len(pubs) != 1 || pubs[0].URI != uri || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("close should clear diagnostics, got %+v", pubs)
	}
	if s.scheduler.Pending(uri) {
		t.Fatal("close should cancel the pending tail")
	}
	if len(s.orchestrator.Active(uri)) != 0 {
		t.Fatal("close should drop cached diagnostics")
	}
	s.runDiagnostics(uri)
	if pubs := publishes(t, drain(t, out)); len(pubs) != 0 {
		t.Fatalf("closed document must not be analyzed, got %+v", pubs)
	}
}

func TestApplyChangesUTF16(t *testing.T) {
	doc := source.NewDocument("file:///tmp/a.js", "javascript", 1, "const s = \"🙂\"; prefab.get(\"a\")\n")
	// character 29 is just before the closing quote of "a", past a surrogate pair
	got := applyChanges(doc, []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 0, Character: 29}, End: position{Line: 0, Character: 29}},
		Text:  ".b",
	}}, 2)
	if got.Text() != "const s = \"🙂\"; prefab.get(\"a.b\")\n" {
		t.Fatalf("unexpected text %q", got.Text())
	}
	if got.Version != 2 || got.LanguageID != "javascript" {
		t.Fatalf("unexpected document %s", got)
	}
}

type panickingProvider struct{ detect.Provider }

func (panickingProvider) IsApplicable(*source.Document) bool { return true }
func (panickingProvider) DetectMethods(*source.Document) []detect.MethodLocation {
	panic("detector bug")
}

func TestHandlerPanicBecomesError(t *testing.T) {
	ring := trace.NewRingTracer(8, trace.LevelError)
	tracer := trace.NewMultiTracer(trace.LevelError, ring)
	s, out := newTestServer(t, ServerOptions{
		Catalog:  readyCatalog(),
		Detector: detect.New(panickingProvider{Provider: detect.Null}),
		Tracer:   tracer,
	})
	s.docs["file:///tmp/a.rb"] = source.NewDocument("file:///tmp/a.rb", "ruby", 1, "x")

	request(t, s, "textDocument/hover", hoverParams{
		TextDocument: textDocumentIdentifier{URI: "file:///tmp/a.rb"},
	})
	msgs := drain(t, out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeInternalError {
		t.Fatalf("expected an internal error response, got %+v", msgs)
	}
	events := ring.Snapshot()
	if len(events) != 1 || !strings.Contains(events[0].Detail, "detector bug") {
		t.Fatalf("panic should be traced, got %+v", events)
	}
}

func TestClientSettingsReplaceScheduler(t *testing.T) {
	s, _ := newTestServer(t, ServerOptions{Catalog: readyCatalog()})
	before := s.scheduler
	notify(t, s, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"prefab":{"debounce":"50ms","maxDiagnostics":1}}`),
	})
	if s.scheduler == before || s.scheduler.Delay().Milliseconds() != 50 {
		t.Fatalf("debounce change should install a new scheduler")
	}
	if s.currentSettings().MaxDiagnostics != 1 {
		t.Fatalf("unexpected settings %+v", s.currentSettings())
	}

	// invalid settings are ignored
	notify(t, s, "workspace/didChangeConfiguration", didChangeConfigurationParams{
		Settings: json.RawMessage(`{"prefab":{"debounce":"-1s"}}`),
	})
	if s.scheduler.Delay().Milliseconds() != 50 {
		t.Fatal("invalid settings must not be applied")
	}
}
