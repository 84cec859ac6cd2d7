package diagnose

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"prefabls/internal/catalog"
	"prefabls/internal/detect"
	"prefabls/internal/diag"
	"prefabls/internal/source"
	"prefabls/internal/trace"
)

func newCatalog(keys ...string) *catalog.Catalog {
	c := catalog.New()
	entries := make(map[string]*catalog.ConfigEntry, len(keys))
	for _, k := range keys {
		entries[k] = &catalog.ConfigEntry{Key: k}
	}
	c.Replace(&catalog.Snapshot{Entries: entries})
	return c
}

func rubyDoc(lines ...string) *source.Document {
	return source.NewDocument("file:///tmp/app.rb", "ruby", 1, strings.Join(lines, "\n"))
}

func TestFilterIsIdempotent(t *testing.T) {
	c := newCatalog("known")
	locs := detect.DetectMethods(rubyDoc(
		`Prefab.get("known")`,
		`Prefab.get("unknown")`,
		`Prefab.enabled?("flag")`,
	))
	once := FilterForMissingKeys(locs, c)
	twice := FilterForMissingKeys(once, c)
	if len(once) != 2 || !slices.Equal(once, twice) {
		t.Fatalf("filter not idempotent: %+v vs %+v", once, twice)
	}
}

func TestEndToEndUnknownKey(t *testing.T) {
	c := newCatalog("other.key")
	doc := rubyDoc(`url = Prefab.get("unknown.key")`)
	o := New(MissingKeyAnalyzer{Keys: c})

	locs := detect.DetectMethods(doc)
	res := o.Run(context.Background(), doc.URI, locs)
	if len(res.Diagnostics) != 1 || !res.Changed {
		t.Fatalf("unexpected result %+v", res)
	}
	d := res.Diagnostics[0]
	if d.Severity != diag.SevError || d.Code != diag.MissingConfigKey {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Range != locs[0].KeyRange {
		t.Fatalf("diagnostic should span the key literal, got %+v", d.Range)
	}
	if d.Message != `Config key "unknown.key" is not defined` {
		t.Fatalf("unexpected message %q", d.Message)
	}
	if d.Data != (diag.Payload{Key: "unknown.key", Kind: diag.KeyConfig, Method: "get"}) {
		t.Fatalf("unexpected payload %+v", d.Data)
	}

	again := o.Run(context.Background(), doc.URI, detect.DetectMethods(doc))
	if again.Changed {
		t.Fatal("rerun with the same input must not report a change")
	}
}

func TestMissingFlagIsWarning(t *testing.T) {
	doc := rubyDoc(`Prefab.enabled?("beta")`)
	o := New(MissingKeyAnalyzer{Keys: newCatalog()})
	res := o.Run(context.Background(), doc.URI, detect.DetectMethods(doc))
	if len(res.Diagnostics) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	d := res.Diagnostics[0]
	if d.Severity != diag.SevWarning || d.Message != `Feature flag "beta" is not defined (evaluates to false)` {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

type failingAnalyzer struct{ err error }

func (failingAnalyzer) Name() string { return "failing" }
func (a failingAnalyzer) Analyze(context.Context, Request) ([]diag.Diagnostic, error) {
	return nil, a.err
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Name() string { return "panicking" }
func (panickingAnalyzer) Analyze(context.Context, Request) ([]diag.Diagnostic, error) {
	panic("boom")
}

func TestAnalyzerFailuresAreIsolated(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelError)
	ctx := trace.WithTracer(context.Background(), ring)
	doc := rubyDoc(`Prefab.get("a")`)
	o := New(failingAnalyzer{err: errors.New("remote down")}, panickingAnalyzer{}, MissingKeyAnalyzer{Keys: newCatalog()})

	res := o.Run(ctx, doc.URI, detect.DetectMethods(doc))
	if len(res.Diagnostics) != 1 {
		t.Fatalf("missing-key analyzer should still contribute, got %+v", res)
	}
	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected two traced failures, got %+v", events)
	}
	if events[0].Detail != "remote down" || !strings.Contains(events[1].Detail, "panicked: boom") {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestChangeDetectionAndCache(t *testing.T) {
	c := newCatalog()
	o := New(MissingKeyAnalyzer{Keys: c})
	ctx := context.Background()
	uri := "file:///tmp/app.rb"

	first := o.Run(ctx, uri, detect.DetectMethods(rubyDoc(`Prefab.get("a")`, `Prefab.enabled?("b")`, `Prefab.get("a")`)))
	if !first.Changed || len(first.Diagnostics) != 3 {
		t.Fatalf("unexpected first run %+v", first)
	}
	if got := o.MissingKeys(uri); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected missing keys %v", got)
	}

	// same keys in another order is a change
	second := o.Run(ctx, uri, detect.DetectMethods(rubyDoc(`Prefab.enabled?("b")`, `Prefab.get("a")`)))
	if !second.Changed {
		t.Fatal("reordered diagnostics must count as a change")
	}

	c.Replace(&catalog.Snapshot{Entries: map[string]*catalog.ConfigEntry{"a": {Key: "a"}, "b": {Key: "b"}}})
	third := o.Run(ctx, uri, detect.DetectMethods(rubyDoc(`Prefab.enabled?("b")`, `Prefab.get("a")`)))
	if !third.Changed || len(third.Diagnostics) != 0 {
		t.Fatalf("catalog update should clear diagnostics, got %+v", third)
	}
	if len(o.Active(uri)) != 0 {
		t.Fatal("cache must hold the latest run")
	}

	o.Forget(uri)
	if o.MissingKeys(uri) != nil {
		t.Fatal("forgotten document should have no keys")
	}
}

func TestLimit(t *testing.T) {
	o := New(MissingKeyAnalyzer{Keys: newCatalog()})
	o.SetLimit(1)
	res := o.Run(context.Background(), "u", detect.DetectMethods(rubyDoc(`Prefab.get("a")`, `Prefab.get("b")`)))
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Data.Key != "a" {
		t.Fatalf("unexpected limited result %+v", res)
	}
}
