package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "INFO", " debug "} {
		if _, err := ParseLevel(s); err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("phase"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if LevelInfo.ShouldEmit(KindPoint, ScopeDocument) {
		t.Fatal("info should drop document scope")
	}
	if !LevelInfo.ShouldEmit(KindSpanBegin, ScopeAnalysis) {
		t.Fatal("info should keep analysis scope")
	}
	if !LevelError.ShouldEmit(KindError, ScopeDocument) {
		t.Fatal("errors pass the error level")
	}
	if LevelError.ShouldEmit(KindPoint, ScopeServer) {
		t.Fatal("error level drops points")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	span := Begin(tr, ScopeAnalysis, "diagnose", 0)
	span.WithExtra("uri", "file:///a.rb").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var end map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if end["kind"] != "end" || end["name"] != "diagnose" || end["detail"] != "ok" {
		t.Fatalf("unexpected end event %v", end)
	}
}

func TestRingKeepsLatest(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeServer, name, "")
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected ring contents %+v", events)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(buf.String(), "• c") {
		t.Fatalf("unexpected dump %q", buf.String())
	}
}

func TestContextFallsBackToNop(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("expected nop tracer")
	}
	ring := NewRingTracer(4, LevelError)
	ctx := WithTracer(context.Background(), ring)
	Error(FromContext(ctx), ScopeDocument, "analyzer", errors.New("boom"))
	if got := ring.Snapshot(); len(got) != 1 || got[0].Detail != "boom" {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestNewMultiWithRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelInfo, Output: &buf, RingSize: 8})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	multi, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("expected multi tracer, got %T", tr)
	}
	Point(tr, ScopeServer, "ready", "")
	ring, ok := multi.Ring()
	if !ok || len(ring.Snapshot()) != 1 {
		t.Fatal("ring should have captured the event")
	}
	if buf.Len() == 0 {
		t.Fatal("stream should have written the event")
	}
}
