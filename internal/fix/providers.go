package fix

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"durian/internal/diag"
	"durian/internal/directive"
	"durian/internal/source"
)

// CodeFix offers a fix for the diagnostics of some codes. Fix returns
// diag.ErrFixNotApplicable when the diagnostic does not match what the
// provider expects.
type CodeFix interface {
	Name() string
	Codes() []diag.Code
	Fix(ctx diag.FixBuildContext, d diag.Diagnostic) (diag.Fix, error)
}

// Registry maps diagnostic codes to the providers that can fix them.
type Registry struct {
	byCode map[diag.Code][]CodeFix
}

func NewRegistry(providers ...CodeFix) *Registry {
	r := &Registry{byCode: make(map[diag.Code][]CodeFix)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry holds the providers for the core diagnostics.
func DefaultRegistry() *Registry {
	return NewRegistry(MakePartial{}, AddModifier{}, RemoveReservedMarker{})
}

func (r *Registry) Register(p CodeFix) {
	for _, c := range p.Codes() {
		r.byCode[c] = append(r.byCode[c], p)
	}
}

// Providers returns the providers registered for code.
func (r *Registry) Providers(code diag.Code) []CodeFix {
	return append([]CodeFix(nil), r.byCode[code]...)
}

// Codes lists every code with at least one provider.
func (r *Registry) Codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.byCode))
	for c := range r.byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Attach adds a lazy fix per matching provider. Edits are computed when
// the fix is materialized.
func (r *Registry) Attach(d diag.Diagnostic) diag.Diagnostic {
	providers := r.byCode[d.Code()]
	if len(providers) == 0 {
		return d
	}
	fixes := append([]diag.Fix(nil), d.Fixes...)
	for _, p := range providers {
		fixes = append(fixes, diag.Fix{
			ID:    fmt.Sprintf("%s/%s@%d:%d", p.Name(), d.Code().ID(), d.Primary.File, d.Primary.Start),
			Title: p.Name(),
			Thunk: func(ctx diag.FixBuildContext) (diag.Fix, error) {
				return p.Fix(ctx, d)
			},
		})
	}
	d.Fixes = fixes
	return d
}

func (r *Registry) AttachAll(ds []diag.Diagnostic) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = r.Attach(d)
	}
	return out
}

// MakePartial adds //durian:partial above the target, or above the
// containing type named in the diagnostic note.
type MakePartial struct{}

func (MakePartial) Name() string { return "make-partial" }

func (MakePartial) Codes() []diag.Code {
	return []diag.Code{diag.CoreTargetNotPartial, diag.CoreContainerNotPartial}
}

func (MakePartial) Fix(ctx diag.FixBuildContext, d diag.Diagnostic) (diag.Fix, error) {
	if !strings.Contains(d.Message(), directive.Partial) || len(d.Args) == 0 {
		return diag.Fix{}, diag.ErrFixNotApplicable
	}
	at := d.Primary
	if d.Code() == diag.CoreContainerNotPartial {
		if len(d.Notes) == 0 {
			return diag.Fix{}, diag.ErrFixNotApplicable
		}
		at = d.Notes[0].Span
	}
	return insertDirective(ctx.FileSet, at, directive.Partial, fmt.Sprintf("Mark %s as //durian:%s", d.Args[0], directive.Partial))
}

// AddModifier adds the modifier directive a directive requires.
type AddModifier struct{}

func (AddModifier) Name() string { return "add-modifier" }

func (AddModifier) Codes() []diag.Code { return []diag.Code{diag.CoreMissingModifier} }

func (AddModifier) Fix(ctx diag.FixBuildContext, d diag.Diagnostic) (diag.Fix, error) {
	if len(d.Args) < 3 {
		return diag.Fix{}, diag.ErrFixNotApplicable
	}
	modifier := d.Args[2]
	if !strings.Contains(d.Message(), directive.Prefix+modifier) {
		return diag.Fix{}, diag.ErrFixNotApplicable
	}
	return insertDirective(ctx.FileSet, d.Primary, modifier, fmt.Sprintf("Add //durian:%s to %s", modifier, d.Args[1]))
}

// RemoveReservedMarker deletes a //durian:generated line from user code.
type RemoveReservedMarker struct{}

func (RemoveReservedMarker) Name() string { return "remove-reserved-marker" }

func (RemoveReservedMarker) Codes() []diag.Code { return []diag.Code{diag.CoreReservedMarker} }

func (RemoveReservedMarker) Fix(ctx diag.FixBuildContext, d diag.Diagnostic) (diag.Fix, error) {
	if !strings.Contains(d.Message(), directive.Generated) {
		return diag.Fix{}, diag.ErrFixNotApplicable
	}
	f, err := file(ctx.FileSet, d.Primary)
	if err != nil {
		return diag.Fix{}, err
	}
	marker := directive.Prefix + directive.Generated
	for _, ln := range commentsAbove(f, f.LineStart(d.Primary.Start)) {
		if ln.text != marker && !strings.HasPrefix(ln.text, marker+" ") {
			continue
		}
		end := ln.end
		if int(end) < len(f.Content) {
			end++ // newline
		}
		span := source.Span{File: d.Primary.File, Start: ln.start, End: end}
		return DeleteLine("Remove "+marker, span, string(f.Content[ln.start:end])), nil
	}
	return diag.Fix{}, diag.ErrFixNotApplicable
}

func file(fs *source.FileSet, sp source.Span) (*source.File, error) {
	if fs == nil {
		return nil, fmt.Errorf("fix: no file set")
	}
	f := fs.Get(sp.File)
	if f == nil || int(sp.Start) > len(f.Content) {
		return nil, fmt.Errorf("fix: span %s is outside the file set", sp)
	}
	return f, nil
}

// insertDirective puts //durian:name on its own line above the line of at,
// with the same indentation.
func insertDirective(fs *source.FileSet, at source.Span, name, title string) (diag.Fix, error) {
	f, err := file(fs, at)
	if err != nil {
		return diag.Fix{}, err
	}
	text := directive.Prefix + name
	ls := f.LineStart(at.Start)
	for _, ln := range commentsAbove(f, ls) {
		if ln.text == text || strings.HasPrefix(ln.text, text+" ") {
			return diag.Fix{}, diag.ErrFixNotApplicable
		}
	}
	line := f.Content[ls:]
	indent := line[:len(line)-len(bytes.TrimLeft(line, " \t"))]
	span := source.Span{File: at.File, Start: ls, End: ls}
	return InsertText(title, span, string(indent)+text+"\n", "", Preferred()), nil
}

type lineRef struct {
	start, end uint32 // end excludes the newline
	text       string // trimmed
}

// commentsAbove returns the line comments directly above the line starting
// at ls, nearest first.
func commentsAbove(f *source.File, ls uint32) []lineRef {
	var out []lineRef
	for ls > 0 {
		end := ls - 1
		start := f.LineStart(end)
		text := strings.TrimSpace(string(f.Content[start:end]))
		if !strings.HasPrefix(text, "//") {
			break
		}
		out = append(out, lineRef{start: start, end: end, text: text})
		ls = start
	}
	return out
}
