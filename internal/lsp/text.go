package lsp

import (
	"fortio.org/safecast"

	"prefabls/internal/source"
)

// toPosition converts a client position. Negative fields clamp to zero.
func toPosition(p position) source.Position {
	line, err := safecast.Conv[uint32](p.Line)
	if err != nil {
		line = 0
	}
	char, err := safecast.Conv[uint32](p.Character)
	if err != nil {
		char = 0
	}
	return source.Position{Line: int(line), Character: int(char)}
}

func fromPosition(p source.Position) position {
	return position{Line: p.Line, Character: p.Character}
}

func fromRange(r source.Range) lspRange {
	return lspRange{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

func toRange(r lspRange) source.Range {
	return source.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

// rangesOverlap reports whether a and b share at least one position.
func rangesOverlap(a, b source.Range) bool {
	return !a.End.Before(b.Start) && !b.End.Before(a.Start)
}

// applyChanges applies content changes in order. Each range is interpreted
// against the text produced by the previous change.
func applyChanges(doc *source.Document, changes []textDocumentContentChangeEvent, version int) *source.Document {
	text := doc.Text()
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		cur := source.NewDocument(doc.URI, doc.LanguageID, version, text)
		start := cur.OffsetAt(toPosition(change.Range.Start))
		end := cur.OffsetAt(toPosition(change.Range.End))
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return source.NewDocument(doc.URI, doc.LanguageID, version, text)
}
