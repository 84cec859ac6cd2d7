package diagfmt

import (
	"encoding/json"
	"io"

	"prefabls/internal/driver"
)

// LocationJSON is a position range in a file; lines and columns are 1-based.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Key      string       `json:"key,omitempty"`
	Kind     string       `json:"kind,omitempty"`
	Location LocationJSON `json:"location"`
}

// ErrorJSON reports a file that could not be checked.
type ErrorJSON struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Errors      []ErrorJSON      `json:"errors,omitempty"`
	Count       int              `json:"count"`
	Files       int              `json:"files"`
}

// BuildJSON converts results into the JSON document.
func BuildJSON(results []driver.FileResult, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}, Files: len(results)}
	for _, r := range results {
		path := FormatPath(r.Path, opts.PathMode, opts.BaseDir)
		if r.Err != nil {
			out.Errors = append(out.Errors, ErrorJSON{File: path, Message: r.Err.Error()})
			continue
		}
		for _, d := range r.Diagnostics {
			if opts.Max > 0 && len(out.Diagnostics) >= opts.Max {
				break
			}
			out.Diagnostics = append(out.Diagnostics, DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code.ID(),
				Message:  d.Message,
				Key:      d.Data.Key,
				Kind:     string(d.Data.Kind),
				Location: LocationJSON{
					File:      path,
					StartByte: d.Span.Start,
					EndByte:   d.Span.End,
					StartLine: d.Range.Start.Line + 1,
					StartCol:  d.Range.Start.Character + 1,
					EndLine:   d.Range.End.Line + 1,
					EndCol:    d.Range.End.Character + 1,
				},
			})
		}
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes results as an indented JSON document.
func JSON(w io.Writer, results []driver.FileResult, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildJSON(results, opts))
}
