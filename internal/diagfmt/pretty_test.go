package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"durian/internal/diag"
	"durian/internal/fix"
	"durian/internal/source"
)

const clientSrc = "package shop\n\ntype Client struct{}\n\nfunc (c *Client) Do() {}\n"

// clientSpan covers "Client" on line 3.
var clientSpan = func(id source.FileID) source.Span {
	return source.Span{File: id, Start: 19, End: 25}
}

func newFixture(t *testing.T) (*source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.AddVirtual("/home/user/project/shop/client.go", []byte(clientSrc))
	return fs, id
}

func TestPathModes(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/shop/client.go:3:6: "},
		{"relative", PathModeRelative, "shop/client.go:3:6: "},
		{"basename", PathModeBasename, "client.go:3:6: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			out := buf.String()
			if !strings.HasPrefix(out, tt.contains) {
				t.Errorf("expected output to start with %q, got:\n%s", tt.contains, out)
			}
			if !strings.Contains(out, "ERROR DUR0001: Client must be marked //durian:partial") {
				t.Errorf("missing header in:\n%s", out)
			}
		})
	}
}

func TestPrettySnippetUnderlinesSpan(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1})
	want := strings.Join([]string{
		"client.go:3:6: ERROR DUR0001: Client must be marked //durian:partial to receive generated members",
		"2 | ",
		"3 | type Client struct{}",
		"  |      ^~~~~~",
		"4 | ",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyStopsAtLastLine(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("one.go", []byte("package one"))
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.MalformedDirective, source.Span{File: id, Start: 8, End: 11}, "//durian:", "missing name"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 3})
	if strings.Contains(buf.String(), "2 |") {
		t.Errorf("snippet ran past the end of the file:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "WARNING DUR0006") {
		t.Errorf("missing severity:\n%s", buf.String())
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs, id := newFixture(t)
	insertAt := source.Span{File: id, Start: 14, End: 14}
	d := diag.New(diag.ContainerNotPartial, source.Span{File: id, Start: 36, End: 60}, "Client", "Client.Do").
		WithNote(clientSpan(id), "declared here").
		WithFixSuggestion(fix.InsertText("Mark Client as //durian:partial", insertAt, "//durian:partial\n", "", fix.WithID("make-partial")))
	bag := diag.NewBag(1)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true, ShowPreview: true})
	out := buf.String()
	for _, want := range []string{
		"note: client.go:3:6: declared here",
		"fix #1: Mark Client as //durian:partial [always-safe] id=make-partial",
		`edit client.go:3:1 apply="//durian:partial\n"`,
		"preview:",
		"- type Client struct{}",
		"+ //durian:partial",
		"+ type Client struct{}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrettySkipsUnresolvableFixes(t *testing.T) {
	fs, id := newFixture(t)
	d := diag.New(diag.TargetNotPartial, clientSpan(id), "Client").WithFixSuggestion(diag.Fix{
		Title: "lazy",
		Thunk: func(diag.FixBuildContext) (diag.Fix, error) { return diag.Fix{}, diag.ErrFixNotApplicable },
	})
	bag := diag.NewBag(1)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true})
	if strings.Contains(buf.String(), "fix #") {
		t.Errorf("refused fix was printed:\n%s", buf.String())
	}
}

func TestPrettyTruncatesWideLines(t *testing.T) {
	fs := source.NewFileSet()
	line := "var s = \"" + strings.Repeat("x", 60) + "\""
	id := fs.AddVirtual("wide.go", []byte(line+"\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.MalformedDirective, source.Span{File: id, Start: 0, End: 3}, "x", "y"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Width: 20})
	if !strings.Contains(buf.String(), "1 | var s = \"xxxxxxxx...") {
		t.Errorf("line was not truncated:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"pretty", "short", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestShortWritesOneLinePerDiagnostic(t *testing.T) {
	fs, id := newFixture(t)
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.TargetNotPartial, clientSpan(id), "Client"))
	bag.Add(diag.New(diag.ReservedMarker, source.Span{File: id, Start: 53, End: 55}, "Client.Do"))

	var buf bytes.Buffer
	if err := Write(&buf, FormatShort, bag, fs, false); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("expected 2 lines, got %d:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "DUR0004") {
		t.Errorf("missing DUR0004:\n%s", buf.String())
	}
}
