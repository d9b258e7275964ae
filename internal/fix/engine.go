package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/afero"

	"durian/internal/diag"
	"durian/internal/source"
)

// ErrNoFixes is returned when nothing was applied.
var ErrNoFixes = errors.New("no applicable fixes found")

type ApplyMode uint8

const (
	// ApplyModeOnce applies the first always-safe fix, or failing that the
	// first fix of any applicability.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix that does not conflict
	// with one applied before it.
	ApplyModeAll
	// ApplyModeID applies the fix whose ID is TargetID.
	ApplyModeID
)

type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes the result without writing files.
	DryRun bool
}

type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange is the new content of one edited file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

func (r *ApplyResult) skip(f diag.Fix, reason string) {
	r.Skipped = append(r.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: reason})
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply materializes the fixes attached to diagnostics, picks some of them
// according to opts and writes the edited files to out. Every fix is
// applied whole or not at all.
func Apply(out afero.Fs, fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{Applied: []AppliedFix{}, Skipped: []SkippedFix{}, FileChanges: []FileChange{}}
	if fs == nil {
		return res, errors.New("fix: FileSet is nil")
	}
	if out == nil && !opts.DryRun {
		return res, errors.New("fix: output filesystem is nil")
	}

	cands := gatherCandidates(diag.FixBuildContext{FileSet: fs}, diagnostics, res)
	if len(cands) == 0 {
		return res, ErrNoFixes
	}
	sortCandidates(cands)
	chosen := choose(cands, opts, res)

	ws := newWorkspace(fs)
	for _, c := range chosen {
		n, reason := ws.stage(c.fix.Edits)
		if reason != "" {
			res.skip(c.fix, reason)
			continue
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:            c.fix.ID,
			Title:         c.fix.Title,
			Code:          c.diag.Code(),
			Message:       c.diag.Message(),
			Applicability: c.fix.Applicability,
			PrimaryPath:   displayPath(fs, c.diag.Primary.File),
			EditCount:     n,
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}
	changes, err := ws.commit(out, opts.DryRun)
	res.FileChanges = changes
	return res, err
}

// gatherCandidates resolves the fixes of every diagnostic in order. A fix
// that fails to build, has no edits or repeats an earlier ID is recorded as
// skipped. Fixes without an ID get one from the diagnostic position.
func gatherCandidates(ctx diag.FixBuildContext, diagnostics []diag.Diagnostic, res *ApplyResult) []candidate {
	var cands []candidate
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		for i, f := range d.Fixes {
			built, err := f.Resolve(ctx)
			switch {
			case errors.Is(err, diag.ErrFixNotApplicable):
				continue
			case err != nil:
				res.skip(f, fmt.Sprintf("failed to build fix: %v", err))
				continue
			case len(built.Edits) == 0:
				res.skip(built, "fix has no edits")
				continue
			}
			if built.ID == "" {
				built.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code().ID(), d.Primary.File, d.Primary.Start, i)
			}
			if seen[built.ID] {
				res.skip(built, "duplicate fix id")
				continue
			}
			seen[built.ID] = true
			cands = append(cands, candidate{diag: d, fix: built, order: len(cands)})
		}
	}
	return cands
}

// sortCandidates orders by primary span, then discovery order. The
// remaining keys only break ties between identical positions.
func sortCandidates(cands []candidate) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		pa, pb := a.diag.Primary, b.diag.Primary
		return cmp.Or(
			cmp.Compare(pa.File, pb.File),
			cmp.Compare(pa.Start, pb.Start),
			cmp.Compare(pa.End, pb.End),
			cmp.Compare(a.order, b.order),
			cmp.Compare(a.diag.Code(), b.diag.Code()),
			-boolCmp(a.fix.IsPreferred, b.fix.IsPreferred),
			cmp.Compare(a.fix.ID, b.fix.ID),
			cmp.Compare(a.fix.Title, b.fix.Title),
		)
	})
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func choose(cands []candidate, opts ApplyOptions, res *ApplyResult) []candidate {
	const needsAll = "fix requires all fixes to be applied"
	switch opts.Mode {
	case ApplyModeID:
		i := slices.IndexFunc(cands, func(c candidate) bool { return c.fix.ID == opts.TargetID })
		switch {
		case i < 0:
			res.Skipped = append(res.Skipped, SkippedFix{ID: opts.TargetID, Reason: "fix id not found"})
			return nil
		case cands[i].fix.RequiresAll:
			res.Skipped = append(res.Skipped, SkippedFix{ID: opts.TargetID, Reason: needsAll})
			return nil
		}
		return cands[i : i+1]
	case ApplyModeAll:
		var out []candidate
		for _, c := range cands {
			if c.fix.Applicability != diag.FixApplicabilityAlwaysSafe {
				res.skip(c.fix, "applicability is "+c.fix.Applicability.String())
				continue
			}
			out = append(out, c)
		}
		return out
	case ApplyModeOnce:
		var fallback []candidate
		for _, c := range cands {
			if c.fix.RequiresAll {
				res.skip(c.fix, needsAll)
				continue
			}
			if c.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{c}
			}
			if fallback == nil {
				fallback = []candidate{c}
			}
		}
		return fallback
	}
	return nil
}

// workspace holds the edits accepted so far, per file. Every edit keeps
// the offsets of the original file content; the new content is produced
// once at commit.
type workspace struct {
	fs    *source.FileSet
	edits map[source.FileID][]diag.TextEdit
}

func newWorkspace(fs *source.FileSet) *workspace {
	return &workspace{fs: fs, edits: make(map[source.FileID][]diag.TextEdit)}
}

// stage accepts all of edits or none. It returns the number of edits and,
// on refusal, the reason.
func (w *workspace) stage(edits []diag.TextEdit) (int, string) {
	byFile := make(map[source.FileID][]diag.TextEdit)
	for _, e := range edits {
		byFile[e.Span.File] = append(byFile[e.Span.File], e)
	}
	for id, fileEdits := range byFile {
		if reason := w.check(id, fileEdits); reason != "" {
			return 0, reason
		}
	}
	for id, fileEdits := range byFile {
		w.edits[id] = append(w.edits[id], fileEdits...)
	}
	return len(edits), ""
}

func (w *workspace) check(id source.FileID, edits []diag.TextEdit) string {
	f := w.fs.Get(id)
	switch {
	case f == nil:
		return "target file is unknown"
	case f.Flags&source.FileVirtual != 0:
		return "target file is virtual"
	case f.Flags&source.FileGenerated != 0:
		return "target file is generated"
	}
	for i, e := range edits {
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(f.Content) {
			return "edit span out of range"
		}
		if e.OldText != "" && string(f.Content[e.Span.Start:e.Span.End]) != e.OldText {
			return "existing text does not match expected content"
		}
		for _, prev := range edits[:i] {
			if overlaps(prev.Span, e.Span) {
				return "fix edits overlap"
			}
		}
		for _, prev := range w.edits[id] {
			if overlaps(prev.Span, e.Span) {
				return "conflicts with previously applied edits in " + f.FormatPath("auto", w.fs.BaseDir())
			}
		}
	}
	return ""
}

// overlaps treats spans as half-open. Two insertions never overlap; an
// insertion overlaps a span that strictly contains its position or starts
// at it.
func overlaps(a, b source.Span) bool {
	switch {
	case a.Start == a.End && b.Start == b.End:
		return false
	case a.Start == a.End:
		return b.Start <= a.Start && a.Start < b.End
	case b.Start == b.End:
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// render applies edits to content from the back, so earlier offsets stay
// valid. Insertions at the same offset keep their acceptance order.
func render(content []byte, edits []diag.TextEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
	out := make([]byte, 0, len(content))
	last := 0
	for _, e := range sorted {
		out = append(out, content[last:e.Span.Start]...)
		out = append(out, e.NewText...)
		last = int(e.Span.End)
	}
	return append(out, content[last:]...)
}

func (w *workspace) commit(out afero.Fs, dryRun bool) ([]FileChange, error) {
	ids := make([]source.FileID, 0, len(w.edits))
	for id := range w.edits {
		ids = append(ids, id)
	}
	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		f := w.fs.Get(id)
		content := render(f.Content, w.edits[id])
		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := out.Stat(f.Path); err == nil {
				mode = info.Mode()
			}
			if err := afero.WriteFile(out, f.Path, f.Restore(content), mode); err != nil {
				return changes, fmt.Errorf("write %s: %w", f.Path, err)
			}
		}
		changes = append(changes, FileChange{
			Path:      f.FormatPath("relative", w.fs.BaseDir()),
			EditCount: len(w.edits[id]),
			Content:   content,
		})
	}
	slices.SortFunc(changes, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })
	return changes, nil
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	if f := fs.Get(id); f != nil {
		return f.FormatPath("auto", fs.BaseDir())
	}
	return ""
}
