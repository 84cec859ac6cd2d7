package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"prefabls/internal/diag"
	"prefabls/internal/driver"
	"prefabls/internal/source"
)

type palette struct {
	location *color.Color
	err      *color.Color
	warning  *color.Color
	info     *color.Color
	caret    *color.Color
	dim      *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		location: color.New(color.Bold),
		err:      color.New(color.FgRed, color.Bold),
		warning:  color.New(color.FgYellow, color.Bold),
		info:     color.New(color.FgCyan),
		caret:    color.New(color.FgGreen, color.Bold),
		dim:      color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.location, p.err, p.warning, p.info, p.caret, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}

type line struct {
	loc  string
	d    diag.Diagnostic
	doc  *source.Document
	text string
}

// Pretty prints one line per diagnostic:
//
//	<path>:<line>:<col>: <severity>: <message> [<code>]
//
// followed, when opts.Context is set, by the source line and a caret marker
// under the key. Messages are aligned on the widest location. Files that
// failed to load are reported as errors without position.
func Pretty(w io.Writer, results []driver.FileResult, opts PrettyOpts) {
	p := newPalette(opts.Color)

	var lines []line
	width := 0
	for _, r := range results {
		path := FormatPath(r.Path, opts.PathMode, opts.BaseDir)
		if r.Err != nil {
			lines = append(lines, line{loc: path, text: r.Err.Error()})
			width = max(width, runewidth.StringWidth(path))
			continue
		}
		for _, d := range r.Diagnostics {
			loc := fmt.Sprintf("%s:%d:%d", path, d.Range.Start.Line+1, d.Range.Start.Character+1)
			lines = append(lines, line{loc: loc, d: d, doc: r.Doc})
			width = max(width, runewidth.StringWidth(loc))
		}
	}
	if opts.Width > 0 {
		width = min(width, int(opts.Width))
	}

	for _, l := range lines {
		loc := truncate(l.loc, width)
		pad := strings.Repeat(" ", max(0, width-runewidth.StringWidth(loc)))
		if l.doc == nil {
			fmt.Fprintf(w, "%s:%s %s: %s\n", p.location.Sprint(loc), pad, p.err.Sprint("error"), l.text)
			continue
		}
		sev := strings.ToLower(l.d.Severity.String())
		fmt.Fprintf(w, "%s:%s %s: %s %s\n",
			p.location.Sprint(loc), pad,
			p.severity(l.d.Severity).Sprint(sev),
			l.d.Message,
			p.dim.Sprintf("[%s]", l.d.Code.ID()))
		if opts.Context {
			writeContext(w, p, l.doc, l.d)
		}
	}
}

// writeContext prints the line holding the diagnostic and a caret marker.
// The marker is placed by display width so that wide runes before the key
// keep it aligned.
func writeContext(w io.Writer, p palette, doc *source.Document, d diag.Diagnostic) {
	lineNo := d.Range.Start.Line
	start := doc.LineStart(lineNo)
	end := doc.LineEnd(lineNo)
	text := doc.Text()[start:end]
	from := min(max(int(d.Span.Start)-start, 0), len(text))
	to := min(max(int(d.Span.End)-start, from), len(text))

	indent := runewidth.StringWidth(strings.ReplaceAll(text[:from], "\t", " "))
	marks := max(1, runewidth.StringWidth(text[from:to]))
	fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(text, "\t", " "))
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", indent), p.caret.Sprint("^"+strings.Repeat("~", marks-1)))
}

func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// Summary prints the totals line and reports whether any error was found.
func Summary(w io.Writer, results []driver.FileResult, opts PrettyOpts) bool {
	p := newPalette(opts.Color)
	var errs, warns, files int
	for _, r := range results {
		if r.Err != nil {
			errs++
			files++
			continue
		}
		if len(r.Diagnostics) > 0 {
			files++
		}
		for _, d := range r.Diagnostics {
			switch {
			case d.Severity >= diag.SevError:
				errs++
			case d.Severity == diag.SevWarning:
				warns++
			}
		}
	}
	if errs == 0 && warns == 0 {
		fmt.Fprintf(w, "%s %s checked\n", p.caret.Sprint("ok"), plural(len(results), "file"))
		return false
	}
	fmt.Fprintf(w, "%s, %s in %d of %d files\n",
		p.err.Sprint(plural(errs, "error")), p.warning.Sprint(plural(warns, "warning")), files, len(results))
	return errs > 0
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
