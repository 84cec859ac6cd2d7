package detect

import "strings"

// literalKind is a set of string-literal delimiter forms a language accepts.
type literalKind uint8

const (
	litSingle   literalKind = 1 << iota // '...'
	litDouble                           // "..."
	litBacktick                         // `...`, may span lines, no ${} interpolation
	litTriple                           // """...""" and '''...''', may span lines

	litQuotes = litSingle | litDouble
)

// literal is a string literal located by the scanner. Start/End cover the
// delimiters, ValueStart/ValueEnd the raw content between them.
type literal struct {
	Value      string
	Start      int
	End        int
	ValueStart int
	ValueEnd   int
	Lines      int // number of line breaks inside the literal
}

// scanner walks text byte by byte tracking line and column. It never
// backtracks past its starting offset.
type scanner struct {
	text string
	pos  int
	line int
	col  int
}

func newScanner(text string, pos int) *scanner {
	return &scanner{text: text, pos: pos}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.text)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) advance() byte {
	b := s.text[s.pos]
	s.pos++
	if b == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
	return b
}

// skipSpace consumes blanks. Line breaks are consumed only when allowNewline
// is set. It returns the number of bytes skipped.
func (s *scanner) skipSpace(allowNewline bool) int {
	start := s.pos
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		case '\n':
			if !allowNewline {
				return s.pos - start
			}
			s.advance()
		default:
			return s.pos - start
		}
	}
	return s.pos - start
}

// literal scans a string literal starting at the current offset. ok is false
// when no accepted literal starts here or when it is unterminated.
func (s *scanner) literal(kinds literalKind) (lit literal, ok bool) {
	if s.eof() {
		return literal{}, false
	}
	start := s.pos
	startLine := s.line
	rest := s.text[s.pos:]

	if kinds&litTriple != 0 && (strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`)) {
		delim := rest[:3]
		for range 3 {
			s.advance()
		}
		valueStart := s.pos
		idx := strings.Index(s.text[s.pos:], delim)
		if idx < 0 {
			return literal{}, false
		}
		for range idx {
			s.advance()
		}
		valueEnd := s.pos
		for range 3 {
			s.advance()
		}
		return literal{
			Value:      s.text[valueStart:valueEnd],
			Start:      start,
			End:        s.pos,
			ValueStart: valueStart,
			ValueEnd:   valueEnd,
			Lines:      s.line - startLine,
		}, true
	}

	quote := s.peek()
	switch {
	case quote == '\'' && kinds&litSingle != 0:
	case quote == '"' && kinds&litDouble != 0:
	case quote == '`' && kinds&litBacktick != 0:
	default:
		return literal{}, false
	}
	multiline := quote == '`'
	s.advance()
	valueStart := s.pos
	for !s.eof() {
		b := s.peek()
		switch {
		case b == '\\':
			s.advance()
			if !s.eof() {
				s.advance()
			}
			continue
		case b == '\n' && !multiline:
			return literal{}, false
		case b == '$' && quote == '`' && strings.HasPrefix(s.text[s.pos:], "${"):
			// interpolated template literals are not static keys
			return literal{}, false
		case b == quote:
			valueEnd := s.pos
			s.advance()
			return literal{
				Value:      s.text[valueStart:valueEnd],
				Start:      start,
				End:        s.pos,
				ValueStart: valueStart,
				ValueEnd:   valueEnd,
				Lines:      s.line - startLine,
			}, true
		}
		s.advance()
	}
	return literal{}, false
}

// closeParen finds the offset just past the parenthesis closing the one at
// open, skipping over string literals. It returns -1 when unbalanced.
func closeParen(text string, open int, kinds literalKind) int {
	if open < 0 || open >= len(text) || text[open] != '(' {
		return -1
	}
	s := newScanner(text, open)
	depth := 0
	for !s.eof() {
		b := s.peek()
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s.advance()
				return s.pos
			}
		case '\'', '"', '`':
			pos := s.pos
			if _, ok := s.literal(kinds | litQuotes); ok {
				continue
			}
			// unterminated or disallowed literal: treat the quote as plain text
			s.pos = pos
		}
		s.advance()
	}
	return -1
}

// openLiteralAtEnd reports whether prefix ends inside an unterminated string
// literal that starts at offset from.
func openLiteralAtEnd(prefix string, from int, kinds literalKind) bool {
	if from >= len(prefix) {
		return false
	}
	rest := prefix[from:]
	if kinds&litTriple != 0 && (strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`)) {
		return !strings.Contains(rest[3:], rest[:3])
	}
	quote := rest[0]
	switch {
	case quote == '\'' && kinds&litSingle != 0:
	case quote == '"' && kinds&litDouble != 0:
	case quote == '`' && kinds&litBacktick != 0:
	default:
		return false
	}
	return !strings.ContainsRune(rest[1:], rune(quote))
}
