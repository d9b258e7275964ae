package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"durian/internal/source"
)

// PlainOptions controls FormatPlain.
type PlainOptions struct {
	// Notes adds one line per note after its diagnostic.
	Notes bool
	// SkipGenerated drops lines pointing into generated files. Golden files
	// use it so regenerating output does not churn them.
	SkipGenerated bool
}

// PlainLine is one rendered line: "severity CODE path:line:col message".
type PlainLine struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

func (l PlainLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.Severity, l.Code, l.Path, l.Line, l.Column, l.Message)
}

// PlainLines renders diags sorted by path, position, severity, code and
// message. Paths are relative to the file set base and use slashes.
func PlainLines(diags []Diagnostic, fs *source.FileSet, opts PlainOptions) []PlainLine {
	if fs == nil {
		return nil
	}
	var out []PlainLine
	add := func(sev, code string, sp source.Span, msg string) {
		f := fs.Get(sp.File)
		if f == nil || (opts.SkipGenerated && f.Flags&source.FileGenerated != 0) {
			return
		}
		pos, _ := fs.Resolve(sp)
		out = append(out, PlainLine{
			Severity: sev,
			Code:     code,
			Path:     trimDot(filepath.ToSlash(f.FormatPath("relative", fs.BaseDir()))),
			Line:     pos.Line,
			Column:   pos.Col,
			Message:  strings.Join(strings.Fields(msg), " "),
		})
	}
	for _, d := range diags {
		code := d.Code().ID()
		add(strings.ToLower(d.Severity.String()), code, d.Primary, d.Message())
		if opts.Notes {
			for _, n := range d.Notes {
				add("note", code, n.Span, n.Msg)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b PlainLine) int {
		return cmp.Or(
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.Severity, b.Severity),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Message, b.Message),
		)
	})
	return out
}

// FormatPlain joins PlainLines with newlines.
func FormatPlain(diags []Diagnostic, fs *source.FileSet, opts PlainOptions) string {
	lines := PlainLines(diags, fs, opts)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

func trimDot(p string) string {
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
