package source

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("pkg/a.go", []byte("package a"), 0)
	if id1 != 0 {
		t.Fatalf("expected first FileID to be 0, got %d", id1)
	}
	id2 := fs.Add("pkg/a.go", []byte("package a // v2"), 0)
	if id2 != 1 {
		t.Fatalf("expected second FileID to be 1, got %d", id2)
	}

	latest, ok := fs.GetLatest("pkg/a.go")
	if !ok || latest != id2 {
		t.Fatalf("expected latest id %d, got %d (ok=%v)", id2, latest, ok)
	}
	if got := string(fs.Get(id1).Content); got != "package a" {
		t.Fatalf("old version lost, got %q", got)
	}
	if fs.Get(id1).Hash == fs.Get(id2).Hash {
		t.Fatal("different contents must hash differently")
	}
}

func TestFileSetGetOutOfRange(t *testing.T) {
	fs := NewFileSet()
	if f := fs.Get(3); f != nil {
		t.Fatalf("expected nil for unknown id, got %+v", f)
	}
	if loc := fs.Location(Span{File: 3}); !loc.IsZero() {
		t.Fatalf("expected zero location, got %v", loc)
	}
}

func TestFileSetResolveMultiline(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.go", []byte("package a\n\nfunc F() {}\n"))

	// "func" starts at offset 11 on line 3
	start, end := fs.Resolve(Span{File: id, Start: 11, End: 15})
	if start != (LineCol{Line: 3, Col: 1}) {
		t.Fatalf("unexpected start %+v", start)
	}
	if end != (LineCol{Line: 3, Col: 5}) {
		t.Fatalf("unexpected end %+v", end)
	}

	// the newline byte itself belongs to the line it terminates
	start, _ = fs.Resolve(Span{File: id, Start: 9, End: 9})
	if start != (LineCol{Line: 1, Col: 10}) {
		t.Fatalf("unexpected newline position %+v", start)
	}
}

func TestFileGetLineAndLineStart(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.go", []byte("package a\n\ttype T struct{}\n"))
	f := fs.Get(id)

	if got := f.GetLine(2); got != "\ttype T struct{}" {
		t.Fatalf("unexpected line 2: %q", got)
	}
	if got := f.GetLine(1); got != "package a" {
		t.Fatalf("unexpected line 1: %q", got)
	}
	if got := f.GetLine(3); got != "" {
		t.Fatalf("expected empty last line, got %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Fatalf("expected empty for missing line, got %q", got)
	}
	if got := f.LineStart(13); got != 10 {
		t.Fatalf("expected line start 10, got %d", got)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	disk := afero.NewMemMapFs()
	path := "/src/crlf.go"
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("package a\r\nvar x = 1\r\n")...)
	if err := afero.WriteFile(disk, path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	if _, err := fs.Load(disk, "/src/missing.go"); err == nil {
		t.Fatal("expected error for a missing file")
	}
	id, err := fs.Load(disk, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "package a\nvar x = 1\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
}

func TestFileSetConcurrentAdd(t *testing.T) {
	fs := NewFileSet()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fs.AddVirtual(filepath.Join("p", string(rune('a'+i%26))+".go"), []byte("package p"))
		}(i)
	}
	wg.Wait()
	if fs.Len() != 32 {
		t.Fatalf("expected 32 files, got %d", fs.Len())
	}
}
