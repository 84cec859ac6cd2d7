package detect

import (
	"regexp"
	"strings"

	"prefabls/internal/source"
)

// callPattern matches the head of an accessor call, i.e. the receiver chain
// and the method name, stopping right before the argument list.
type callPattern struct {
	method MethodType
	head   *regexp.Regexp
	// group is the submatch that marks where the call starts; 0 means the
	// whole match. Heads that need a guard character before the method name
	// capture the real start in a group.
	group int
	// parenless accepts `recv.get "key"` in addition to `recv.get("key")`.
	parenless bool
}

func (p callPattern) start(m []int) int {
	if p.group > 0 && len(m) > 2*p.group && m[2*p.group] >= 0 {
		return m[2*p.group]
	}
	return m[0]
}

// providablePattern matches an environment variable lookup. When named is
// set the variable name is the first submatch and the match is the whole
// expression. Otherwise a string literal must follow the head: call heads end
// with the opening parenthesis and extend to the matching close, other heads
// need closer right after the literal.
type providablePattern struct {
	head   *regexp.Regexp
	named  bool
	call   bool
	closer byte
}

// findCalls runs one pass per pattern over the whole text. Passes are
// additive: a call matched by two patterns is reported twice.
func findCalls(doc *source.Document, patterns []callPattern, kinds literalKind) []MethodLocation {
	text := doc.Text()
	var out []MethodLocation
	for _, p := range patterns {
		for _, m := range p.head.FindAllStringSubmatchIndex(text, -1) {
			if loc, ok := callAt(doc, text, p.start(m), m[1], p, kinds); ok {
				out = append(out, loc)
			}
		}
	}
	return out
}

func callAt(doc *source.Document, text string, start, headEnd int, p callPattern, kinds literalKind) (MethodLocation, bool) {
	s := newScanner(text, headEnd)
	s.skipSpace(false)

	var (
		lit     literal
		ok      bool
		callEnd int
	)
	switch {
	case s.peek() == '(':
		open := s.pos
		s.advance()
		s.skipSpace(true)
		if lit, ok = s.literal(kinds); !ok {
			return MethodLocation{}, false
		}
		callEnd = closeParen(text, open, kinds)
		if callEnd < 0 {
			callEnd = lit.End
		}
	case p.parenless && s.pos > headEnd:
		if lit, ok = s.literal(kinds & litQuotes); !ok {
			return MethodLocation{}, false
		}
		callEnd = lit.End
	default:
		return MethodLocation{}, false
	}
	if lit.Value == "" {
		return MethodLocation{}, false
	}

	// The key is located by searching the call text, so a key that also
	// occurs earlier in the call (e.g. `prefab.get("get")`) resolves to that
	// earlier occurrence.
	idx := strings.Index(text[start:callEnd], lit.Value)
	keyStart := start + idx
	keyEnd := keyStart + len(lit.Value)

	span := source.SpanOf(start, callEnd)
	keySpan := source.SpanOf(keyStart, keyEnd)
	return MethodLocation{
		Type:     p.method,
		Range:    doc.RangeOf(span),
		Key:      lit.Value,
		KeyRange: doc.RangeOf(keySpan),
		Span:     span,
		KeySpan:  keySpan,
	}, true
}

// prefixMethod inspects only the text before the cursor and reports the
// method whose argument literal is currently open. When several calls on the
// line qualify, the one starting last wins.
func prefixMethod(prefix string, patterns []callPattern, kinds literalKind) MethodType {
	best := -1
	result := MethodNone
	for _, p := range patterns {
		for _, m := range p.head.FindAllStringSubmatchIndex(prefix, -1) {
			start := p.start(m)
			if start <= best {
				continue
			}
			s := newScanner(prefix, m[1])
			s.skipSpace(false)
			switch {
			case s.peek() == '(':
				s.advance()
				s.skipSpace(false)
			case p.parenless && s.pos > m[1]:
			default:
				continue
			}
			if openLiteralAtEnd(prefix, s.pos, kinds) {
				best = start
				result = p.method
			}
		}
	}
	return result
}

func findProvidables(doc *source.Document, patterns []providablePattern) []Providable {
	text := doc.Text()
	var out []Providable
	for _, p := range patterns {
		for _, m := range p.head.FindAllStringSubmatchIndex(text, -1) {
			if p.named {
				if len(m) < 4 || m[2] < 0 {
					continue
				}
				span := source.SpanOf(m[0], m[1])
				out = append(out, Providable{Name: text[m[2]:m[3]], Range: doc.RangeOf(span), Span: span})
				continue
			}
			s := newScanner(text, m[1])
			s.skipSpace(true)
			lit, ok := s.literal(litQuotes)
			if !ok || lit.Value == "" {
				continue
			}
			end := -1
			s.skipSpace(true)
			switch {
			case p.call:
				end = closeParen(text, m[1]-1, litQuotes)
			case s.peek() == p.closer:
				s.advance()
				end = s.pos
			}
			if end < 0 {
				continue
			}
			span := source.SpanOf(m[0], end)
			out = append(out, Providable{Name: lit.Value, Range: doc.RangeOf(span), Span: span})
		}
	}
	return out
}
