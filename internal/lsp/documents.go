package lsp

import (
	"encoding/json"

	"prefabls/internal/source"
	"prefabls/internal/trace"
)

func (s *Server) document(uri string) *source.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[uri]
}

func (s *Server) openURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	return out
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	lang := params.TextDocument.LanguageID
	if lang == "" {
		lang, _ = source.LanguageForPath(source.URIToPath(uri))
	}
	doc := source.NewDocument(uri, lang, params.TextDocument.Version, params.TextDocument.Text)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	trace.Point(s.tracer, trace.ScopeDocument, "didOpen", doc.String())
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		s.logf("didChange for unopened document %s", uri)
		return nil
	}
	doc = applyChanges(doc, params.ContentChanges, params.TextDocument.Version)
	s.docs[uri] = doc
	s.mu.Unlock()
	trace.Point(s.tracer, trace.ScopeDocument, "didChange", doc.String())
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if ok && params.Text != nil {
		s.docs[uri] = source.NewDocument(uri, doc.LanguageID, doc.Version, *params.Text)
	}
	s.mu.Unlock()
	if ok {
		s.scheduleDiagnostics(uri)
	}
	return nil
}

// handleDidClose drops everything kept for the document and clears its
// published diagnostics.
func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, uri)
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	scheduler := s.scheduler
	s.mu.Unlock()

	scheduler.Forget(uri)
	s.analysisMu.Lock()
	s.orchestrator.Forget(uri)
	s.analysisMu.Unlock()
	trace.Point(s.tracer, trace.ScopeDocument, "didClose", uri)

	if hadDiagnostics {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}
