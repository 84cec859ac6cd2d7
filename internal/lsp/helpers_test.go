package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"prefabls/internal/catalog"
	"prefabls/internal/config"
)

func newTestServer(t *testing.T, opts ServerOptions) (*Server, *bytes.Buffer) {
	t.Helper()
	if opts.Settings.IsZero() {
		opts.Settings = config.Defaults()
		// only the head of a burst runs during a test
		opts.Settings.Debounce = time.Hour
	}
	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, opts)
	t.Cleanup(s.stop)
	return s, &out
}

func readyCatalog(entries ...*catalog.ConfigEntry) *catalog.Catalog {
	c := catalog.New()
	snap := &catalog.Snapshot{
		Environments: []catalog.Environment{{ID: "1", Name: "Production"}, {ID: "2", Name: "Staging"}},
		Entries:      make(map[string]*catalog.ConfigEntry, len(entries)),
	}
	for _, e := range entries {
		snap.Entries[e.Key] = e
	}
	c.Replace(snap)
	return c
}

func stringValue(v string) *catalog.ConfigValue {
	return &catalog.ConfigValue{String: &v}
}

func boolValue(v bool) *catalog.ConfigValue {
	return &catalog.ConfigValue{Bool: &v}
}

func request(t *testing.T, s *Server, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	msg := &rpcMessage{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: method, Params: payload}
	if err := s.dispatch(msg); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func notify(t *testing.T, s *Server, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	if err := s.dispatch(&rpcMessage{JSONRPC: "2.0", Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

// drain decodes and removes every message written so far.
func drain(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	out.Reset()
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, m := range msgs {
		if m.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var p publishDiagnosticsParams
		if err := json.Unmarshal(m.Params, &p); err != nil {
			t.Fatalf("decode publish: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func result[T any](t *testing.T, msgs []rpcMessage) T {
	t.Helper()
	var v T
	for _, m := range msgs {
		if len(m.ID) == 0 {
			continue
		}
		if m.Error != nil {
			t.Fatalf("unexpected error response: %+v", m.Error)
		}
		if err := json.Unmarshal(m.Result, &v); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		return v
	}
	t.Fatal("no response found")
	return v
}

func openDoc(t *testing.T, s *Server, uri, lang, text string) {
	t.Helper()
	notify(t, s, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: lang, Version: 1, Text: text},
	})
}
