package source

import (
	"path/filepath"
	"testing"
)

func TestRelativePath(t *testing.T) {
	base := filepath.FromSlash("/work/base")
	cases := []struct {
		name, path, want string
	}{
		{"inside", "/work/base/nested/file.go", "nested/file.go"},
		{"base itself", "/work/base", "."},
		{"sibling", "/work/other/file.go", "/work/other/file.go"},
		{"dotdot prefix name", "/work/base/..hidden/file.go", "..hidden/file.go"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RelativePath(filepath.FromSlash(tc.path), base)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("RelativePath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestToLineColFirstLineWithoutNewlines(t *testing.T) {
	if got := toLineCol(nil, 4); got != (LineCol{Line: 1, Col: 5}) {
		t.Fatalf("unexpected position %+v", got)
	}
}

func TestRestoreUndoesNormalization(t *testing.T) {
	fs := NewFileSet()
	raw := []byte("\xEF\xBB\xBFpackage a\r\n\r\nvar x = 1\r\n")
	f := fs.Get(fs.AddNormalized("a.go", raw))
	if string(f.Content) != "package a\n\nvar x = 1\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if got := f.Restore(f.Content); string(got) != string(raw) {
		t.Fatalf("Restore = %q, want %q", got, raw)
	}

	plain := fs.Get(fs.Add("b.go", []byte("package b\n"), 0))
	if got := plain.Restore(plain.Content); string(got) != "package b\n" {
		t.Fatalf("Restore changed a plain file: %q", got)
	}
}
