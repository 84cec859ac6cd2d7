package lsp

import (
	"encoding/json"
	"fmt"

	"prefabls/internal/catalog"
	"prefabls/internal/detect"
	"prefabls/internal/source"
)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	doc := s.document(source.CanonicalURI(params.TextDocument.URI))
	if doc == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, s.buildCompletion(doc, toPosition(params.Position)))
}

// buildCompletion offers catalog keys while the cursor is inside the key
// literal of an accessor call: configs for get calls, flags for
// enabled checks.
func (s *Server) buildCompletion(doc *source.Document, pos source.Position) *completionList {
	var (
		typ  catalog.ConfigType
		kind int
	)
	switch s.detector.CompletionType(doc, pos) {
	case detect.CompletionConfigs:
		typ, kind = catalog.ConfigTypeConfig, completionKindValue
	case detect.CompletionFeatureFlags:
		typ, kind = catalog.ConfigTypeFeatureFlag, completionKindConstant
	default:
		return nil
	}
	keys := s.catalog.KeysOfType(typ)
	items := make([]completionItem, 0, len(keys))
	for i, key := range keys {
		detail := string(typ)
		if entry, ok := s.catalog.Raw(key); ok && entry.ValueType != "" {
			detail = string(entry.ValueType)
		}
		items = append(items, completionItem{
			Label:    key,
			Kind:     kind,
			Detail:   detail,
			SortText: fmt.Sprintf("%05d", i),
		})
	}
	return &completionList{Items: items}
}
