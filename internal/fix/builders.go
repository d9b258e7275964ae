package fix

import (
	"durian/internal/diag"
	"durian/internal/source"
)

// Option adjusts a fix built by one of the constructors below. Fixes start
// as always-safe quick fixes.
type Option func(*diag.Fix)

func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) { f.Applicability = app }
}

func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) { f.Kind = kind }
}

func Preferred() Option {
	return func(f *diag.Fix) { f.IsPreferred = true }
}

// WithID gives the fix a stable identifier for `durian fix --id`.
func WithID(id string) Option {
	return func(f *diag.Fix) { f.ID = id }
}

// WithRequiresAll marks a fix that is only correct together with the other
// fixes of its run.
func WithRequiresAll() Option {
	return func(f *diag.Fix) { f.RequiresAll = true }
}

// WithThunk defers computing the edits until the fix is resolved.
func WithThunk(thunk diag.FixThunk) Option {
	return func(f *diag.Fix) { f.Thunk = thunk }
}

// Edits builds a fix from several edits applied together.
func Edits(title string, edits []diag.TextEdit, opts ...Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         edits,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText inserts text at the empty span at. A non-empty guard must
// match the text at the span.
func InsertText(title string, at source.Span, text, guard string, opts ...Option) diag.Fix {
	return Edits(title, []diag.TextEdit{{Span: at, NewText: text, OldText: guard}}, opts...)
}

// DeleteSpan removes span. expect, when set, must match its current text.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return Edits(title, []diag.TextEdit{{Span: span, OldText: expect}}, opts...)
}

func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return Edits(title, []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}}, opts...)
}

// DeleteLine removes a whole line. span covers the line and its newline;
// expect is the same text.
func DeleteLine(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return DeleteSpan(title, span, expect, opts...)
}
