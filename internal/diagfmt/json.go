package diagfmt

import (
	"encoding/json"
	"io"

	"durian/internal/diag"
	"durian/internal/source"
)

// LocationJSON is a file position.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Kind          string        `json:"kind"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	BuildError    string        `json:"build_error,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title,omitempty"`
	Category string       `json:"category,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func location(span source.Span, fs *source.FileSet, opts JSONOpts) LocationJSON {
	loc := LocationJSON{StartByte: span.Start, EndByte: span.End}
	if f := fs.Get(span.File); f != nil {
		loc.File = f.FormatPath(pathFor(opts.PathMode), fs.BaseDir())
	}
	if opts.IncludePositions {
		start, end := fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDiagnosticsOutput builds the JSON document without encoding it.
// Max truncates the document, never the bag.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) (DiagnosticsOutput, error) {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, len(items))}
	for _, d := range items {
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON(d, fs, opts))
	}
	out.Count = len(out.Diagnostics)
	return out, nil
}

func diagnosticJSON(d diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	dj := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code().ID(),
		Message:  d.Message(),
		Location: location(d.Primary, fs, opts),
	}
	if d.Descriptor != nil {
		dj.Title = d.Descriptor.Title
		dj.Category = d.Descriptor.Category
	}
	if opts.IncludeNotes {
		for _, n := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: location(n.Span, fs, opts)})
		}
	}
	if opts.IncludeFixes {
		for _, f := range buildFixes(fs, d.Fixes) {
			dj.Fixes = append(dj.Fixes, fixJSON(f, fs, opts))
		}
	}
	return dj
}

func fixJSON(f builtFix, fs *source.FileSet, opts JSONOpts) FixJSON {
	fj := FixJSON{
		ID:            f.ID,
		Title:         f.Title,
		Kind:          f.Kind.String(),
		Applicability: f.Applicability.String(),
		IsPreferred:   f.IsPreferred,
	}
	if f.err != nil {
		fj.BuildError = f.err.Error()
		return fj
	}
	for _, e := range f.Edits {
		ej := FixEditJSON{Location: location(e.Span, fs, opts), NewText: e.NewText, OldText: e.OldText}
		if opts.IncludePreviews {
			if p, err := previewEdit(fs, e); err == nil {
				ej.BeforeLines, ej.AfterLines = p.before, p.after
			}
		}
		fj.Edits = append(fj.Edits, ej)
	}
	return fj
}

// JSON writes an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	doc, err := BuildDiagnosticsOutput(bag, fs, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
