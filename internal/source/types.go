package source

// Position is a zero-based line/character pair. Character counts UTF-16 code
// units, matching the LSP text document model.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p sorts strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Range is a half-open [Start, End) region expressed in positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos lies inside r. The end position is inclusive so
// a cursor placed right after the last character still hits the range.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// ContainsRange reports whether other is fully inside r.
func (r Range) ContainsRange(other Range) bool {
	return !other.Start.Before(r.Start) && !r.End.Before(other.End)
}
