package lsp

import (
	"prefabls/internal/diag"
	"prefabls/internal/trace"
)

const diagnosticSource = "prefab"

func (s *Server) scheduleDiagnostics(uri string) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	scheduler.Trigger(uri, func() { s.runDiagnostics(uri) })
}

// runDiagnostics analyzes one open document and publishes the result when it
// differs from the last run. Before the catalog is ready the run is skipped;
// awaitCatalog analyzes every open document once it is.
func (s *Server) runDiagnostics(uri string) {
	if !s.catalog.IsReady() {
		trace.Point(s.tracer, trace.ScopeDocument, "diagnostics.deferred", uri)
		return
	}
	s.analysisMu.Lock()
	defer s.analysisMu.Unlock()

	doc := s.document(uri)
	if doc == nil {
		return
	}
	locs := s.detector.DetectMethods(doc)
	res := s.orchestrator.Run(s.baseCtx, uri, locs)
	if !res.Changed {
		return
	}
	s.publishDiagnostics(uri, res.Diagnostics)
}

// reanalyzeAll runs diagnostics for every open document, e.g. after the
// catalog changed.
func (s *Server) reanalyzeAll() {
	for _, uri := range s.openURIs() {
		s.runDiagnostics(uri)
	}
}

func (s *Server) publishDiagnostics(uri string, diags []diag.Diagnostic) {
	list := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		list = append(list, toLSPDiagnostic(d))
	}
	s.mu.Lock()
	if _, open := s.docs[uri]; !open {
		s.mu.Unlock()
		return
	}
	if len(list) == 0 {
		delete(s.published, uri)
	} else {
		s.published[uri] = struct{}{}
	}
	s.mu.Unlock()
	if err := s.sendPublish(uri, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func toLSPDiagnostic(d diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    fromRange(d.Range),
		Severity: d.Severity.LSP(),
		Code:     d.Code.ID(),
		Source:   diagnosticSource,
		Message:  d.Message,
	}
	if d.Data.Key != "" {
		out.Data = &diagnosticPayload{
			Key:    d.Data.Key,
			Kind:   string(d.Data.Kind),
			Method: d.Data.Method,
		}
	}
	return out
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for uri := range prev {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}
