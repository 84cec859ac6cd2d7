package source

import (
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// Document is an immutable text buffer with a precomputed line index.
// Offsets are byte offsets into Text; positions use UTF-16 columns.
type Document struct {
	URI        string
	LanguageID string
	Version    int

	text    string
	lineIdx []uint32
}

// NewDocument builds a document and indexes its line breaks.
func NewDocument(uri, languageID string, version int, text string) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		text:       text,
		lineIdx:    buildLineIndex([]byte(text)),
	}
}

// Load reads a file from disk, strips a UTF-8 BOM, normalizes CRLF and infers
// the language from the file extension.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	lang, _ := LanguageForPath(path)
	return NewDocument(PathToURI(path), lang, 0, string(content)), nil
}

// Text returns the full buffer.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	return d.text
}

// LineCount returns the number of lines, counting a trailing empty line.
func (d *Document) LineCount() int {
	return len(d.lineIdx) + 1
}

// LineStart returns the byte offset at which line begins.
func (d *Document) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line > len(d.lineIdx) {
		return len(d.text)
	}
	return int(d.lineIdx[line-1]) + 1
}

// LineEnd returns the byte offset of the newline ending line, or the end of
// the text for the last line.
func (d *Document) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(d.lineIdx) {
		return len(d.text)
	}
	return int(d.lineIdx[line])
}

// PositionAt converts a byte offset into a line/UTF-16 character position.
func (d *Document) PositionAt(offset int) Position {
	if d == nil {
		return Position{}
	}
	if offset < 0 {
		offset = 0
	}
	off := safeUint32(offset)
	contentLen := safeUint32(len(d.text))
	if off > contentLen {
		off = contentLen
	}
	lineIdx := d.lineIdx
	idx := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var lineStart uint32
	if idx > 0 {
		lineStart = lineIdx[idx-1] + 1
	}
	if lineStart > off {
		lineStart = off
	}
	units := 0
	for cur := lineStart; cur < off; {
		r, size := utf8.DecodeRuneInString(d.text[cur:off])
		if r == utf8.RuneError && size == 1 {
			size = 1
		}
		if cur+safeUint32(size) > off {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		cur += safeUint32(size)
	}
	return Position{Line: idx, Character: units}
}

// OffsetAt converts a position into a byte offset, clamping to the line end
// and to the end of the text.
func (d *Document) OffsetAt(pos Position) int {
	if d == nil || pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	if pos.Line >= d.LineCount() {
		return len(d.text)
	}
	start := d.LineStart(pos.Line)
	end := d.LineEnd(pos.Line)
	return start + utf16Prefix(d.text[start:end], pos.Character)
}

// RangeOf maps a byte span onto a position range.
func (d *Document) RangeOf(span Span) Range {
	return Range{
		Start: d.PositionAt(int(span.Start)),
		End:   d.PositionAt(int(span.End)),
	}
}

// LinePrefix returns the text of pos.Line from its start up to and including
// the cursor column. Text after the cursor is never included.
func (d *Document) LinePrefix(pos Position) string {
	if d == nil || pos.Line < 0 || pos.Line >= d.LineCount() {
		return ""
	}
	start := d.LineStart(pos.Line)
	return d.text[start:d.OffsetAt(pos)]
}

func (d *Document) String() string {
	return fmt.Sprintf("%s (%s, v%d)", d.URI, d.LanguageID, d.Version)
}

// utf16Prefix returns the byte length of the longest prefix of line that fits
// in units UTF-16 code units.
func utf16Prefix(line string, units int) int {
	count := 0
	i := 0
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if count+need > units {
			break
		}
		count += need
		i += size
	}
	return i
}
