package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"prefabls/internal/catalog"
	"prefabls/internal/detect"
	"prefabls/internal/resolve"
	"prefabls/internal/source"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	doc := s.document(source.CanonicalURI(params.TextDocument.URI))
	if doc == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, s.buildHover(s.baseCtx, doc, toPosition(params.Position)))
}

// buildHover describes the accessor call or environment lookup under pos.
func (s *Server) buildHover(ctx context.Context, doc *source.Document, pos source.Position) *hover {
	for _, loc := range s.detector.DetectMethods(doc) {
		if loc.Range.Contains(pos) {
			return s.keyHover(ctx, loc)
		}
	}
	for _, p := range s.detector.DetectProvidables(doc) {
		if p.Range.Contains(pos) {
			return s.envHover(p)
		}
	}
	return nil
}

func (s *Server) keyHover(ctx context.Context, loc detect.MethodLocation) *hover {
	rng := fromRange(loc.KeyRange)
	entry, err := s.fetcher.FetchConfig(ctx, loc.Key)
	if errors.Is(err, catalog.ErrNotFound) {
		return &hover{
			Contents: markdown(fmt.Sprintf("**`%s`**\n\nNot defined in the catalog.", loc.Key)),
			Range:    &rng,
		}
	}
	if err != nil {
		s.logf("hover fetch %q: %v", loc.Key, err)
		return nil
	}
	envs, err := s.fetcher.ListEnvironments(ctx)
	if err != nil {
		s.logf("hover environments: %v", err)
		envs = nil
	}
	values := filterEnvironments(resolve.Display(resolve.Resolve(entry, envs)), s.currentSettings().Environments)
	return &hover{Contents: markdown(s.renderEntry(entry, values)), Range: &rng}
}

// filterEnvironments keeps the Default row and the environments named in
// wanted, matched by name or id. An empty wanted keeps everything.
func filterEnvironments(values []resolve.Resolved, wanted []string) []resolve.Resolved {
	if len(wanted) == 0 {
		return values
	}
	return slices.DeleteFunc(values, func(r resolve.Resolved) bool {
		if r.IsDefault() {
			return false
		}
		return !slices.ContainsFunc(wanted, func(w string) bool {
			return strings.EqualFold(w, r.Environment.Name) || w == r.Environment.ID
		})
	})
}

func (s *Server) renderEntry(entry *catalog.ConfigEntry, values []resolve.Resolved) string {
	var b strings.Builder
	kind := "config"
	if entry.IsFlag() {
		kind = "feature flag"
	}
	fmt.Fprintf(&b, "**`%s`** · %s", entry.Key, kind)
	if entry.ValueType != "" {
		fmt.Fprintf(&b, " · %s", entry.ValueType)
	}
	b.WriteString("\n")
	for _, r := range values {
		name := "Default"
		if !r.IsDefault() {
			name = r.Environment.Name
		}
		fmt.Fprintf(&b, "\n- **%s**: %s", name, s.renderValue(r))
	}
	return b.String()
}

func (s *Server) renderValue(r resolve.Resolved) string {
	switch {
	case r.Inherited:
		return "_inherits Default_"
	case r.HasRules:
		return "_targeting rules_"
	case r.Value == nil:
		return "_no value_"
	}
	p := r.Value
	switch p.Kind {
	case catalog.KindProvided:
		if v, ok := s.lookupEnv(p.Lookup); ok {
			return fmt.Sprintf("%s (`%s` locally)", p.Text, v)
		}
		return p.Text
	case catalog.KindWeighted:
		return strings.Join(p.List, " / ")
	case catalog.KindStringList:
		quoted := make([]string, len(p.List))
		for i, v := range p.List {
			quoted[i] = "`" + v + "`"
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return "`" + p.Text + "`"
	}
}

func (s *Server) envHover(p detect.Providable) *hover {
	rng := fromRange(p.Range)
	text := fmt.Sprintf("Environment variable `%s` is not set locally.", p.Name)
	if v, ok := s.lookupEnv(p.Name); ok {
		text = fmt.Sprintf("Environment variable `%s` = `%s`", p.Name, v)
	}
	return &hover{Contents: markdown(text), Range: &rng}
}

func markdown(value string) markupContent {
	return markupContent{Kind: "markdown", Value: value}
}
