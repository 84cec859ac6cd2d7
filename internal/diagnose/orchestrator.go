package diagnose

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"prefabls/internal/detect"
	"prefabls/internal/diag"
	"prefabls/internal/trace"
)

// Request is the input of one analyzer run.
type Request struct {
	URI       string
	Locations []detect.MethodLocation
}

// Analyzer turns call sites into diagnostics.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, req Request) ([]diag.Diagnostic, error)
}

// Result is the outcome of Run. Changed is false when the diagnostics equal
// the ones cached for the document, element by element.
type Result struct {
	Diagnostics []diag.Diagnostic
	Changed     bool
}

// Orchestrator runs analyzers and caches the last diagnostics per document.
type Orchestrator struct {
	analyzers []Analyzer
	limit     int

	mu     sync.Mutex
	active map[string][]diag.Diagnostic
}

// New returns an orchestrator running analyzers in the given order.
func New(analyzers ...Analyzer) *Orchestrator {
	return &Orchestrator{
		analyzers: analyzers,
		active:    make(map[string][]diag.Diagnostic),
	}
}

// SetLimit caps the number of diagnostics per document; zero means no cap.
func (o *Orchestrator) SetLimit(limit int) {
	o.mu.Lock()
	o.limit = limit
	o.mu.Unlock()
}

// Run analyzes locations of uri. Diagnostics of all analyzers are unioned in
// registration order. A failing analyzer contributes nothing. The cache entry
// is replaced even when nothing changed.
func (o *Orchestrator) Run(ctx context.Context, uri string, locs []detect.MethodLocation) Result {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeAnalysis, "diagnose", 0).WithExtra("uri", uri)

	o.mu.Lock()
	limit := o.limit
	o.mu.Unlock()

	req := Request{URI: uri, Locations: locs}
	bag := diag.NewBag(limit)
	for _, a := range o.analyzers {
		ds, err := analyze(ctx, a, req)
		if err != nil {
			trace.Error(tracer, trace.ScopeDocument, "analyzer."+a.Name(), err)
			continue
		}
		bag.AddAll(ds)
	}
	out := slices.Clip(bag.Items())

	o.mu.Lock()
	changed := !diag.Equal(o.active[uri], out)
	o.active[uri] = out
	o.mu.Unlock()

	span.WithExtra("diagnostics", strconv.Itoa(len(out))).End(fmt.Sprintf("changed=%t", changed))
	return Result{Diagnostics: out, Changed: changed}
}

func analyze(ctx context.Context, a Analyzer, req Request) (ds []diag.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("analyzer %s panicked: %v", a.Name(), r)
		}
	}()
	return a.Analyze(ctx, req)
}

// Active returns a copy of the cached diagnostics of uri.
func (o *Orchestrator) Active(uri string) []diag.Diagnostic {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.active[uri])
}

// Forget drops the cache entry of a closed document.
func (o *Orchestrator) Forget(uri string) {
	o.mu.Lock()
	delete(o.active, uri)
	o.mu.Unlock()
}

// MissingKeys lists the keys currently reported as missing in uri, in order
// of first appearance.
func (o *Orchestrator) MissingKeys(uri string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var keys []string
	for _, d := range o.active[uri] {
		if d.Code != diag.MissingConfigKey && d.Code != diag.MissingFlagKey {
			continue
		}
		if !slices.Contains(keys, d.Data.Key) {
			keys = append(keys, d.Data.Key)
		}
	}
	return keys
}
