package diagfmt

import (
	"cmp"
	"errors"
	"slices"

	"durian/internal/diag"
	"durian/internal/source"
)

// builtFix is a fix after its thunk ran. err is set when the thunk failed
// for a reason other than refusing.
type builtFix struct {
	diag.Fix
	err error
}

// buildFixes resolves fixes in display order: preferred first, then safest
// applicability, kind, title and ID. Fixes whose thunk refuses are dropped.
// A failing thunk keeps the unresolved fix together with its error.
func buildFixes(fs *source.FileSet, fixes []diag.Fix) []builtFix {
	sorted := slices.Clone(fixes)
	slices.SortStableFunc(sorted, func(a, b diag.Fix) int {
		pref := 0
		if a.IsPreferred != b.IsPreferred {
			pref = 1
			if a.IsPreferred {
				pref = -1
			}
		}
		return cmp.Or(pref,
			cmp.Compare(a.Applicability, b.Applicability),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.ID, b.ID))
	})
	ctx := diag.FixBuildContext{FileSet: fs}
	out := make([]builtFix, 0, len(sorted))
	for _, f := range sorted {
		resolved, err := f.Resolve(ctx)
		switch {
		case errors.Is(err, diag.ErrFixNotApplicable):
			continue
		case err != nil:
			out = append(out, builtFix{Fix: f, err: err})
		default:
			out = append(out, builtFix{Fix: resolved})
		}
	}
	return out
}
