package fix

import (
	"testing"

	"durian/internal/diag"
	"durian/internal/source"
)

func TestEditsDefaultsAndOptions(t *testing.T) {
	at := source.Span{File: 1, Start: 4, End: 4}
	cases := []struct {
		name string
		opts []Option
		want diag.Fix
	}{
		{
			name: "defaults",
			want: diag.Fix{Title: "t", Kind: diag.FixKindQuickFix, Applicability: diag.FixApplicabilityAlwaysSafe},
		},
		{
			name: "all options",
			opts: []Option{WithRequiresAll(), Preferred(), WithID("custom-id"), WithKind(diag.FixKindRefactor),
				WithApplicability(diag.FixApplicabilitySafeWithHeuristics)},
			want: diag.Fix{Title: "t", ID: "custom-id", Kind: diag.FixKindRefactor,
				Applicability: diag.FixApplicabilitySafeWithHeuristics, IsPreferred: true, RequiresAll: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InsertText("t", at, "//durian:partial\n", "", tc.opts...)
			if len(got.Edits) != 1 || got.Edits[0].NewText != "//durian:partial\n" || got.Edits[0].Span != at {
				t.Fatalf("unexpected edits: %+v", got.Edits)
			}
			got.Edits = nil
			if got.Title != tc.want.Title || got.ID != tc.want.ID || got.Kind != tc.want.Kind ||
				got.Applicability != tc.want.Applicability || got.IsPreferred != tc.want.IsPreferred ||
				got.RequiresAll != tc.want.RequiresAll {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDeleteAndReplaceKeepGuards(t *testing.T) {
	span := source.Span{File: 1, Start: 3, End: 9}

	del := DeleteLine("remove marker", span, "//x\n")
	if del.Edits[0].NewText != "" || del.Edits[0].OldText != "//x\n" {
		t.Errorf("unexpected delete edit: %+v", del.Edits[0])
	}

	rep := ReplaceSpan("rename", span, "Other", "Name")
	if rep.Edits[0].NewText != "Other" || rep.Edits[0].OldText != "Name" {
		t.Errorf("unexpected replace edit: %+v", rep.Edits[0])
	}
}

func TestWithThunk(t *testing.T) {
	called := false
	thunk := func(diag.FixBuildContext) (diag.Fix, error) {
		called = true
		return diag.Fix{Edits: []diag.TextEdit{{NewText: "x"}}}, nil
	}
	fix := InsertText("lazy", source.Span{}, "", "", WithThunk(thunk), WithID("lazy-1"))

	resolved, err := fix.Resolve(diag.FixBuildContext{})
	if err != nil {
		t.Fatal(err)
	}
	if !called || resolved.ID != "lazy-1" || resolved.Title != "lazy" || resolved.Thunk != nil {
		t.Errorf("unexpected resolved fix: %+v", resolved)
	}
}

func TestNilOption(t *testing.T) {
	var nilOpt Option
	fix := InsertText("Test fix", source.Span{}, "// ", "", nilOpt, WithRequiresAll())
	if !fix.RequiresAll {
		t.Error("expected RequiresAll to be true")
	}
}
