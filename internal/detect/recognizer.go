package detect

import (
	"fmt"
	"regexp"
	"slices"

	"prefabls/internal/source"
)

// Kind tags a recognizer variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindRuby
	KindReact
	KindJavaScript
	KindNode
	KindJava
	KindPython
	KindYaml
)

func (k Kind) String() string {
	switch k {
	case KindRuby:
		return "ruby"
	case KindReact:
		return "react"
	case KindJavaScript:
		return "javascript"
	case KindNode:
		return "node"
	case KindJava:
		return "java"
	case KindPython:
		return "python"
	case KindYaml:
		return "yaml"
	default:
		return "none"
	}
}

func (k Kind) GoString() string {
	return fmt.Sprintf("Kind(%s)", k.String())
}

var jsLanguages = []string{"javascript", "typescript", "javascriptreact", "typescriptreact"}

// recognizer is the table-driven implementation shared by every language
// variant. Variants differ only in the data they fill in.
type recognizer struct {
	kind      Kind
	languages []string
	literals  literalKind
	patterns  []callPattern
	// snippet is a format string taking the key, e.g. `Prefab.get("%s")`.
	snippet string

	// applies is the whole-document precondition; nil means always.
	applies func(text string) bool
	// dynamic derives extra patterns from the document, e.g. callback
	// parameter names bound to a client.
	dynamic func(text string) []callPattern
	// within restricts matches to the returned regions of the document.
	within func(text string) []source.Span
	// prefixOK gates cursor detection on the line prefix.
	prefixOK func(prefix string) bool
}

func (r *recognizer) Name() string { return r.kind.String() }

// Kind reports the variant tag.
func (r *recognizer) Kind() Kind { return r.kind }

func (r *recognizer) handles(doc *source.Document) bool {
	return doc != nil && slices.Contains(r.languages, doc.LanguageID)
}

func (r *recognizer) IsApplicable(doc *source.Document) bool {
	if !r.handles(doc) {
		return false
	}
	return r.applies == nil || r.applies(doc.Text())
}

func (r *recognizer) patternsFor(text string) []callPattern {
	if r.dynamic == nil {
		return r.patterns
	}
	extra := r.dynamic(text)
	if len(extra) == 0 {
		return r.patterns
	}
	return append(slices.Clip(r.patterns), extra...)
}

func (r *recognizer) DetectMethods(doc *source.Document) []MethodLocation {
	if !r.IsApplicable(doc) {
		return nil
	}
	text := doc.Text()
	locs := findCalls(doc, r.patternsFor(text), r.literals)
	if r.within == nil {
		return locs
	}
	regions := r.within(text)
	return slices.DeleteFunc(locs, func(l MethodLocation) bool {
		return !slices.ContainsFunc(regions, func(sp source.Span) bool {
			return sp.Start <= l.Span.Start && l.Span.End <= sp.End
		})
	})
}

func (r *recognizer) DetectMethod(doc *source.Document, pos source.Position) MethodType {
	if !r.IsApplicable(doc) {
		return MethodNone
	}
	prefix := doc.LinePrefix(pos)
	if r.prefixOK != nil && !r.prefixOK(prefix) {
		return MethodNone
	}
	return prefixMethod(prefix, r.patternsFor(doc.Text()), r.literals)
}

func (r *recognizer) CompletionType(doc *source.Document, pos source.Position) CompletionCategory {
	return completionFor(r.DetectMethod(doc, pos))
}

func (r *recognizer) ConfigGet(key string) string {
	return fmt.Sprintf(r.snippet, key)
}

// envRecognizer adds environment variable lookup detection.
type envRecognizer struct {
	*recognizer
	providables []providablePattern
}

func (r *envRecognizer) DetectProvidables(doc *source.Document) []Providable {
	if !r.handles(doc) {
		return nil
	}
	return findProvidables(doc, r.providables)
}

// callGuard and bareGuard capture the call start after a non-identifier
// byte. bareGuard also rejects a preceding dot so that a bare method name
// does not match member calls.
const (
	callGuard = `(?:^|[^\w$])(`
	bareGuard = `(?:^|[^\w$.])(`
)

func call(method MethodType, expr string) callPattern {
	return callPattern{method: method, head: regexp.MustCompile(callGuard + expr + `)`), group: 1}
}

func bare(method MethodType, expr string) callPattern {
	return callPattern{method: method, head: regexp.MustCompile(bareGuard + expr + `)`), group: 1}
}

func parenless(p callPattern) callPattern {
	p.parenless = true
	return p
}

func lookup(expr string, closer byte) providablePattern {
	return providablePattern{head: regexp.MustCompile(expr), closer: closer}
}

func lookupCall(expr string) providablePattern {
	return providablePattern{head: regexp.MustCompile(expr), call: true}
}

func lookupNamed(expr string) providablePattern {
	return providablePattern{head: regexp.MustCompile(expr), named: true}
}
