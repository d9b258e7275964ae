package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"durian/internal/diag"
	"durian/internal/fix"
	"durian/internal/source"
)

func decode(t *testing.T, buf *bytes.Buffer) DiagnosticsOutput {
	t.Helper()
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	return out
}

func TestJSONBasic(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	out := decode(t, &buf)
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "DUR0001" {
		t.Errorf("unexpected severity/code %s %s", d.Severity, d.Code)
	}
	if d.Title != "target must be partial" || d.Category != diag.CategoryCore {
		t.Errorf("unexpected descriptor fields %q %q", d.Title, d.Category)
	}
	if !strings.HasPrefix(d.Message, "Client must be marked") {
		t.Errorf("unexpected message %q", d.Message)
	}
	want := LocationJSON{File: "client.go", StartByte: 19, EndByte: 25, StartLine: 3, StartCol: 6, EndLine: 3, EndCol: 12}
	if d.Location != want {
		t.Errorf("location = %+v, want %+v", d.Location, want)
	}
}

func TestJSONWithNotesAndFixes(t *testing.T) {
	fs, id := newFixture(t)
	insertAt := source.Span{File: id, Start: 14, End: 14}
	d := diag.New(diag.ContainerNotPartial, source.Span{File: id, Start: 36, End: 60}, "Client", "Client.Do").
		WithNote(clientSpan(id), "declared here").
		WithFixSuggestion(fix.InsertText("Mark Client", insertAt, "//durian:partial\n", "", fix.WithID("b"))).
		WithFixSuggestion(fix.InsertText("Mark Client (preferred)", insertAt, "//durian:partial\n", "", fix.WithID("a"), fix.Preferred())).
		WithFixSuggestion(diag.Fix{ID: "refused", Title: "refused", Thunk: func(diag.FixBuildContext) (diag.Fix, error) {
			return diag.Fix{}, diag.ErrFixNotApplicable
		}}).
		WithFixSuggestion(diag.Fix{ID: "broken", Title: "broken", Thunk: func(diag.FixBuildContext) (diag.Fix, error) {
			return diag.Fix{}, errors.New("boom")
		}})
	bag := diag.NewBag(1)
	bag.Add(d)

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		PathMode:        PathModeBasename,
		IncludeNotes:    true,
		IncludeFixes:    true,
		IncludePreviews: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := decode(t, &buf).Diagnostics[0]

	if len(got.Notes) != 1 || got.Notes[0].Message != "declared here" || got.Notes[0].Location.StartByte != 19 {
		t.Errorf("unexpected notes %+v", got.Notes)
	}
	var ids []string
	for _, f := range got.Fixes {
		ids = append(ids, f.ID)
	}
	if strings.Join(ids, ",") != "a,b,broken" {
		t.Fatalf("fix order = %v", ids)
	}
	first := got.Fixes[0]
	if !first.IsPreferred || first.Kind != "quickfix" || first.Applicability != "always-safe" {
		t.Errorf("unexpected fix %+v", first)
	}
	if len(first.Edits) != 1 || first.Edits[0].NewText != "//durian:partial\n" {
		t.Fatalf("unexpected edits %+v", first.Edits)
	}
	if a := first.Edits[0].AfterLines; len(a) != 2 || a[0] != "//durian:partial" {
		t.Errorf("unexpected preview %v", a)
	}
	if got.Fixes[2].BuildError != "boom" {
		t.Errorf("expected build error, got %+v", got.Fixes[2])
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if strings.Contains(s, "start_line") || strings.Contains(s, "end_col") {
		t.Errorf("line positions should be omitted:\n%s", s)
	}
	if !strings.Contains(s, `"start_byte": 19`) {
		t.Errorf("byte positions should always be present:\n%s", s)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(10)
	for i := range 5 {
		sp := source.Span{File: id, Start: uint32(i), End: uint32(i + 1)}
		bag.Add(diag.New(diag.MalformedDirective, sp, "//durian:", "missing name"))
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 3}); err != nil {
		t.Fatal(err)
	}
	if out := decode(t, &buf); out.Count != 3 || len(out.Diagnostics) != 3 {
		t.Errorf("expected 3 diagnostics, got %d", out.Count)
	}
	if bag.Len() != 5 {
		t.Errorf("bag was truncated to %d", bag.Len())
	}
}

func TestJSONPathModes(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))

	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/shop/client.go"},
		{PathModeRelative, "shop/client.go"},
		{PathModeBasename, "client.go"},
	}
	for _, tt := range tests {
		out, err := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: tt.mode})
		if err != nil {
			t.Fatal(err)
		}
		if got := out.Diagnostics[0].Location.File; got != tt.want {
			t.Errorf("mode %d: file = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
