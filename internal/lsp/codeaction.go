package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"prefabls/internal/diag"
	"prefabls/internal/source"
)

const (
	codeActionQuickFix = "quickfix"
	codeActionExtract  = "refactor.extract"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	doc := s.document(uri)
	if doc == nil {
		return s.sendResponse(msg.ID, []codeAction{})
	}
	actions := s.createConfigActions(uri, params)
	actions = append(actions, s.extractActions(doc, toRange(params.Range))...)
	return s.sendResponse(msg.ID, actions)
}

// createConfigActions offers to create the missing key of each diagnostic in
// the request. When the client sends no diagnostics the cached ones
// overlapping the range are used.
func (s *Server) createConfigActions(uri string, params codeActionParams) []codeAction {
	diags := params.Context.Diagnostics
	if len(diags) == 0 {
		rng := toRange(params.Range)
		s.analysisMu.Lock()
		active := s.orchestrator.Active(uri)
		s.analysisMu.Unlock()
		for _, d := range active {
			if rangesOverlap(d.Range, rng) {
				diags = append(diags, toLSPDiagnostic(d))
			}
		}
	}
	var out []codeAction
	seen := make(map[string]bool)
	for _, d := range diags {
		if d.Source != diagnosticSource || d.Data == nil || d.Data.Key == "" {
			continue
		}
		if seen[d.Data.Key] {
			continue
		}
		seen[d.Data.Key] = true
		noun := "config"
		if d.Data.Kind == string(diag.KeyFeatureFlag) {
			noun = "feature flag"
		}
		title := fmt.Sprintf("Create %s `%s`", noun, d.Data.Key)
		out = append(out, codeAction{
			Title:       title,
			Kind:        codeActionQuickFix,
			Diagnostics: []lspDiagnostic{d},
			Command: &command{
				Title:     title,
				Command:   commandCreateConfig,
				Arguments: []any{createConfigArgs{Key: d.Data.Key, Kind: d.Data.Kind}},
			},
		})
	}
	return out
}

// extractActions offers to replace environment variable lookups in rng with
// a get-call of a provided config backed by the same variable.
func (s *Server) extractActions(doc *source.Document, rng source.Range) []codeAction {
	var out []codeAction
	for _, p := range s.detector.DetectProvidables(doc) {
		if !rangesOverlap(p.Range, rng) {
			continue
		}
		key := providedKey(p.Name)
		call, ok := s.detector.ConfigGet(doc, key)
		if !ok {
			continue
		}
		title := fmt.Sprintf("Extract `%s` to provided config `%s`", p.Name, key)
		out = append(out, codeAction{
			Title: title,
			Kind:  codeActionExtract,
			Edit: &workspaceEdit{Changes: map[string][]textEdit{
				doc.URI: {{Range: fromRange(p.Range), NewText: call}},
			}},
			Command: &command{
				Title:   title,
				Command: commandCreateConfig,
				Arguments: []any{createConfigArgs{
					Key:      key,
					Kind:     string(diag.KeyConfig),
					Provided: p.Name,
				}},
			},
		})
	}
	return out
}

// providedKey derives a config key from a variable name: DATABASE_URL
// becomes database.url.
func providedKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.Trim(name, "_")), "_", ".")
}
