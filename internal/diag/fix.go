package diag

import (
	"errors"
	"fmt"

	"durian/internal/source"
)

// FixKind is a coarse classification of a fix.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability is the confidence that a fix is correct without review.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces Span with NewText. A non-empty OldText guards the edit:
// the engine refuses to apply it when the current text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixBuildContext carries what lazy fixes need to compute their edits.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds a fix on demand.
type FixThunk func(ctx FixBuildContext) (Fix, error)

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	RequiresAll   bool
	Edits         []TextEdit
	Thunk         FixThunk
}

// ErrFixNotApplicable is returned by thunks whose precondition failed.
var ErrFixNotApplicable = errors.New("fix not applicable")

// Resolve expands a lazy fix. Eager fixes are returned unchanged.
func (f Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f.Thunk == nil {
		return f, nil
	}
	built, err := f.Thunk(ctx)
	if err != nil {
		return Fix{}, err
	}
	if built.ID == "" {
		built.ID = f.ID
	}
	if built.Title == "" {
		built.Title = f.Title
	}
	built.Thunk = nil
	return built, nil
}

// MaterializeFixes resolves every fix in order. Fixes whose thunk reports
// ErrFixNotApplicable are dropped; any other failure aborts.
func MaterializeFixes(ctx FixBuildContext, fixes []Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		resolved, err := f.Resolve(ctx)
		if errors.Is(err, ErrFixNotApplicable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fix %q: %w", f.Title, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}
