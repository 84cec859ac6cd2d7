package source

import (
	"fmt"
)

// Span is a byte range within a document's text.
type Span struct {
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether other lies within s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// SpanOf builds a span from int byte offsets, clamping negatives to zero.
func SpanOf(start, end int) Span {
	return Span{Start: safeUint32(start), End: safeUint32(end)}
}
