package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"durian/internal/diag"
	"durian/internal/source"
)

// Pretty writes diagnostics in the human readable form. Items are printed
// in bag order, so callers sort the bag first. Each diagnostic reads
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined as ^~~~, then notes
// and fixes when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPrinter(w, fs, opts)
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts

	err, warn, info, note, path, gutter, caret, add, del *color.Color
}

func newPrinter(w io.Writer, fs *source.FileSet, opts PrettyOpts) *printer {
	p := &printer{
		w:      w,
		fs:     fs,
		opts:   opts,
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		add:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.gutter, p.caret, p.add, p.del} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func (p *printer) location(sp source.Span) string {
	f := p.fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := p.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(pathFor(p.opts.PathMode), p.fs.BaseDir()), start.Line, start.Col)
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	fmt.Fprintf(p.w, "%s: %s: %s\n",
		p.path.Sprint(p.location(d.Primary)),
		p.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code().ID()),
		d.Message())
	p.snippet(d.Primary)

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(p.w, "  %s %s: %s\n", p.note.Sprint("note:"), p.location(n.Span), n.Msg)
		}
	}
	if p.opts.ShowFixes {
		p.fixes(d)
	}
}

// snippet prints the primary line with Context lines around it.
func (p *printer) snippet(sp source.Span) {
	f := p.fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := p.fs.Resolve(sp)
	ctx := uint32(max(p.opts.Context, 0))
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	if lines, err := safecast.Conv[uint32](len(f.LineIdx) + 1); err == nil {
		last = min(last, lines)
	}
	width := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		line := f.GetLine(n)
		fmt.Fprintf(p.w, "%s %s\n", p.gutter.Sprintf("%*d |", width, n), p.truncate(line))
		if n != start.Line {
			continue
		}
		from := int(start.Col) - 1
		to := len(line)
		if end.Line == start.Line {
			to = int(end.Col) - 1
		}
		from, to = min(from, len(line)), min(max(to, from), len(line))
		fmt.Fprintf(p.w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), indentOf(line[:from]), p.caret.Sprint(underline(line[from:to])))
	}
}

func (p *printer) truncate(line string) string {
	if p.opts.Width == 0 || runewidth.StringWidth(line) <= int(p.opts.Width) {
		return line
	}
	return runewidth.Truncate(line, int(p.opts.Width), "...")
}

// indentOf blanks out prefix keeping tabs, so the caret lines up with the
// source line in any tab width.
func indentOf(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func underline(text string) string {
	n := runewidth.StringWidth(text)
	if n <= 1 {
		return "^"
	}
	return "^" + strings.Repeat("~", n-1)
}

func (p *printer) fixes(d diag.Diagnostic) {
	n := 0
	for _, resolved := range buildFixes(p.fs, d.Fixes) {
		if resolved.err != nil {
			continue
		}
		n++
		fmt.Fprintf(p.w, "  %s %s [%s]", p.note.Sprintf("fix #%d:", n), resolved.Title, resolved.Applicability)
		if resolved.ID != "" {
			fmt.Fprintf(p.w, " id=%s", resolved.ID)
		}
		fmt.Fprintln(p.w)
		for _, e := range resolved.Edits {
			fmt.Fprintf(p.w, "    edit %s apply=%q", p.location(e.Span), e.NewText)
			if e.OldText != "" {
				fmt.Fprintf(p.w, " expect=%q", e.OldText)
			}
			fmt.Fprintln(p.w)
			if !p.opts.ShowPreview {
				continue
			}
			preview, err := previewEdit(p.fs, e)
			if err != nil {
				continue
			}
			fmt.Fprintln(p.w, "    preview:")
			for _, l := range preview.before {
				fmt.Fprintf(p.w, "      %s\n", p.del.Sprint("- "+l))
			}
			for _, l := range preview.after {
				fmt.Fprintf(p.w, "      %s\n", p.add.Sprint("+ "+l))
			}
		}
	}
}
