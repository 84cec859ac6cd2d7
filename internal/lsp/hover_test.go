package lsp

import (
	"strings"
	"testing"

	"prefabls/internal/catalog"
	"prefabls/internal/config"
	"prefabls/internal/source"
)

func apiURLEntry() *catalog.ConfigEntry {
	return &catalog.ConfigEntry{
		Key:       "api.url",
		Type:      catalog.ConfigTypeConfig,
		ValueType: catalog.ValueTypeString,
		Rows: []catalog.Row{
			{Values: []catalog.Value{{Value: stringValue("https://example.com")}}},
			{EnvironmentID: "1", Values: []catalog.Value{
				{Criteria: []catalog.Criterion{{PropertyName: "user.key", Operator: "PROP_IS_ONE_OF"}}, Value: stringValue("https://beta.example.com")},
				{Value: stringValue("https://prod.example.com")},
			}},
		},
	}
}

func dbURLEntry() *catalog.ConfigEntry {
	return &catalog.ConfigEntry{
		Key:  "db.url",
		Type: catalog.ConfigTypeConfig,
		Rows: []catalog.Row{{Values: []catalog.Value{{Value: &catalog.ConfigValue{
			Provided: &catalog.Provided{Source: "ENV_VAR", Lookup: "PREFABLS_TEST_DB_URL"},
		}}}}},
	}
}

func hoverAt(t *testing.T, s *Server, uri string, pos position) *hover {
	t.Helper()
	doc := s.document(source.CanonicalURI(uri))
	if doc == nil {
		t.Fatalf("document %s not open", uri)
	}
	return s.buildHover(s.baseCtx, doc, toPosition(pos))
}

func TestHoverShowsEnvironments(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{Catalog: readyCatalog(apiURLEntry())})
	uri := "file:///tmp/app.rb"
	openDoc(t, s, uri, "ruby", `url = Prefab.get("api.url")`)
	drain(t, out)

	h := hoverAt(t, s, uri, position{Line: 0, Character: 20})
	if h == nil {
		t.Fatal("expected hover")
	}
	want := []string{
		"**`api.url`** · config · string",
		"- **Default**: `https://example.com`",
		"- **Production**: _targeting rules_",
		"- **Staging**: _inherits Default_",
	}
	for _, w := range want {
		if !strings.Contains(h.Contents.Value, w) {
			t.Fatalf("hover missing %q:\n%s", w, h.Contents.Value)
		}
	}
	if strings.Index(h.Contents.Value, "Production") > strings.Index(h.Contents.Value, "Staging") {
		t.Fatalf("environments should be sorted by name:\n%s", h.Contents.Value)
	}
	if h.Range == nil || h.Range.Start.Character != 18 || h.Range.End.Character != 25 {
		t.Fatalf("hover should cover the key, got %+v", h.Range)
	}
	if hoverAt(t, s, uri, position{Line: 0, Character: 2}) != nil {
		t.Fatal("no hover outside accessor calls")
	}
}

func TestHoverFiltersEnvironments(t *testing.T) {
	settings := config.Defaults()
	settings.Environments = []string{"staging"}
	s, out := newTestServer(t, ServerOptions{Catalog: readyCatalog(apiURLEntry()), Settings: settings})
	uri := "file:///tmp/app.rb"
	openDoc(t, s, uri, "ruby", `Prefab.get("api.url")`)
	drain(t, out)

	h := hoverAt(t, s, uri, position{Line: 0, Character: 14})
	if h == nil || strings.Contains(h.Contents.Value, "Production") || !strings.Contains(h.Contents.Value, "Staging") {
		t.Fatalf("unexpected hover %+v", h)
	}
}

func TestHoverProvidedValueUsesEnvFile(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{
		Catalog:   readyCatalog(dbURLEntry()),
		EnvValues: map[string]string{"PREFABLS_TEST_DB_URL": "postgres://localhost/app"},
	})
	uri := "file:///tmp/app.rb"
	openDoc(t, s, uri, "ruby", "db = Prefab.get(\"db.url\")\nhost = ENV[\"PREFABLS_TEST_DB_URL\"]\n")
	drain(t, out)

	h := hoverAt(t, s, uri, position{Line: 0, Character: 18})
	if h == nil || !strings.Contains(h.Contents.Value, "`PREFABLS_TEST_DB_URL` via ENV (`postgres://localhost/app` locally)") {
		t.Fatalf("unexpected hover %+v", h)
	}

	env := hoverAt(t, s, uri, position{Line: 1, Character: 12})
	if env == nil || env.Contents.Value != "Environment variable `PREFABLS_TEST_DB_URL` = `postgres://localhost/app`" {
		t.Fatalf("unexpected env hover %+v", env)
	}
}

func TestHoverMissingKey(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{Catalog: readyCatalog()})
	uri := "file:///tmp/app.rb"
	openDoc(t, s, uri, "ruby", `Prefab.enabled?("beta")`)
	drain(t, out)

	h := hoverAt(t, s, uri, position{Line: 0, Character: 18})
	if h == nil || !strings.Contains(h.Contents.Value, "Not defined in the catalog.") {
		t.Fatalf("unexpected hover %+v", h)
	}
}
