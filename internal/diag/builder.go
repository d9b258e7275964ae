package diag

import (
	"fmt"

	"durian/internal/source"
)

// New creates a diagnostic for desc at primary. Args are stringified once so
// the diagnostic stays serialisable.
func New(desc *Descriptor, primary source.Span, args ...any) Diagnostic {
	if desc == nil {
		panic("diag: nil descriptor")
	}
	return Diagnostic{
		Descriptor: desc,
		Args:       stringify(args),
		Severity:   desc.Severity,
		Primary:    primary,
	}
}

func stringify(args []any) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = v
		case fmt.Stringer:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{
		Title:         title,
		Kind:          FixKindQuickFix,
		Applicability: FixApplicabilityAlwaysSafe,
		Edits:         edits,
	})
	return d
}

func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes, fix)
	return d
}
