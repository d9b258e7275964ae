package fix

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"durian/internal/diag"
	"durian/internal/source"
)

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.go", []byte(""))
	span := source.Span{File: fileID, Start: 0, End: 0}

	d := diag.New(diag.TargetNotPartial, span, "Client.Do")
	d.Fixes = []diag.Fix{
		{
			ID:    "fix-duplicate",
			Title: "mark partial",
			Edits: []diag.TextEdit{{Span: span, NewText: "//durian:partial\n"}},
		},
		{
			ID:    "fix-duplicate",
			Title: "mark partial again",
			Edits: []diag.TextEdit{{Span: span, NewText: "//durian:partial\n"}},
		},
	}

	ctx := diag.FixBuildContext{FileSet: fs}
	res := &ApplyResult{}
	candidates := gatherCandidates(ctx, []diag.Diagnostic{d}, res)
	skips := res.Skipped

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 1 {
		t.Fatalf("expected 1 skipped fix, got %d", len(skips))
	}
	skip := skips[0]
	if skip.ID != "fix-duplicate" {
		t.Fatalf("expected skipped fix id 'fix-duplicate', got %q", skip.ID)
	}
	if skip.Reason != "duplicate fix id" {
		t.Fatalf("expected duplicate fix reason, got %q", skip.Reason)
	}
}

const clientSrc = "package shop\n\ntype Client struct{}\n"

func clientFile(t *testing.T) (*source.FileSet, source.FileID, afero.Fs) {
	t.Helper()
	out := afero.NewMemMapFs()
	if err := afero.WriteFile(out, "/src/client.go", []byte(clientSrc), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id := fs.Add("/src/client.go", []byte(clientSrc), 0)
	return fs, id, out
}

func TestApplyWritesGuardedEdit(t *testing.T) {
	fs, id, out := clientFile(t)
	at := source.Span{File: id, Start: 14, End: 14}
	d := diag.New(diag.TargetNotPartial, at, "Client")
	d.Fixes = []diag.Fix{InsertText("mark partial", at, "//durian:partial\n", "")}

	res, err := Apply(out, fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Code != diag.CoreTargetNotPartial {
		t.Fatalf("unexpected applied fixes: %+v", res.Applied)
	}
	got, err := afero.ReadFile(out, "/src/client.go")
	if err != nil {
		t.Fatal(err)
	}
	want := "package shop\n\n//durian:partial\ntype Client struct{}\n"
	if string(got) != want {
		t.Fatalf("unexpected content:\n%s", got)
	}
}

func TestApplyRefusesStaleGuard(t *testing.T) {
	fs, id, out := clientFile(t)
	span := source.Span{File: id, Start: 14, End: 18}
	d := diag.New(diag.TargetNotPartial, span, "Client")
	d.Fixes = []diag.Fix{ReplaceSpan("rename", span, "kind", "func")}

	res, err := Apply(out, fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}

func TestApplyDryRunLeavesFilesAlone(t *testing.T) {
	fs, id, out := clientFile(t)
	at := source.Span{File: id, Start: 14, End: 14}
	d := diag.New(diag.TargetNotPartial, at, "Client")
	d.Fixes = []diag.Fix{InsertText("mark partial", at, "//durian:partial\n", "")}

	res, err := Apply(nil, fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("expected one file change, got %d", len(res.FileChanges))
	}
	got, _ := afero.ReadFile(out, "/src/client.go")
	if string(got) != clientSrc {
		t.Fatalf("dry run modified the file:\n%s", got)
	}
}

func TestApplySkipsGeneratedFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("/src/zz_durian_getter.go", []byte(clientSrc), source.FileGenerated)
	at := source.Span{File: id, Start: 0, End: 0}
	d := diag.New(diag.TargetNotPartial, at, "Client")
	d.Fixes = []diag.Fix{InsertText("mark partial", at, "x", "")}

	res, err := Apply(afero.NewMemMapFs(), fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is generated" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}

func TestApplyAllSkipsConflictingFix(t *testing.T) {
	fs, id, out := clientFile(t)
	word := source.Span{File: id, Start: 19, End: 25}
	first := diag.New(diag.TargetNotPartial, word, "Client")
	first.Fixes = []diag.Fix{ReplaceSpan("rename", word, "Server", "Client", WithID("rename"))}
	second := diag.New(diag.TargetNotPartial, word, "Client")
	second.Fixes = []diag.Fix{ReplaceSpan("rename again", word, "Caller", "Client", WithID("rename-again"))}
	at := source.Span{File: id, Start: 14, End: 14}
	third := diag.New(diag.TargetNotPartial, at, "Client")
	third.Fixes = []diag.Fix{InsertText("mark partial", at, "//durian:partial\n", "", WithID("partial"))}

	res, err := Apply(out, fs, []diag.Diagnostic{first, second, third}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 || res.Applied[0].ID != "partial" || res.Applied[1].ID != "rename" {
		t.Fatalf("unexpected applied fixes: %+v", res.Applied)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "rename-again" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
	got, _ := afero.ReadFile(out, "/src/client.go")
	if want := "package shop\n\n//durian:partial\ntype Server struct{}\n"; string(got) != want {
		t.Fatalf("unexpected content:\n%s", got)
	}
}

func TestApplyByID(t *testing.T) {
	fs, id, out := clientFile(t)
	at := source.Span{File: id, Start: 14, End: 14}
	d := diag.New(diag.TargetNotPartial, at, "Client")
	d.Fixes = []diag.Fix{
		InsertText("a", at, "//a\n", "", WithID("a")),
		InsertText("b", at, "//b\n", "", WithID("b"), WithApplicability(diag.FixApplicabilityManualReview)),
	}

	res, err := Apply(out, fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeID, TargetID: "b"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "b" {
		t.Fatalf("unexpected applied fixes: %+v", res.Applied)
	}

	_, err = Apply(out, fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}
