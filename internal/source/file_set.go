package source

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// FileSet stores every version of every file seen in a run, indexed by
// FileID, and resolves spans to line and column. The package loader adds
// files from several goroutines, so all methods lock.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	latest  map[string]FileID
	baseDir string
}

func NewFileSet() *FileSet {
	return &FileSet{latest: make(map[string]FileID)}
}

// NewFileSetWithBase returns a FileSet whose relative paths are computed
// against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	s := NewFileSet()
	s.baseDir = baseDir
	return s
}

func (s *FileSet) SetBaseDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseDir = dir
}

// BaseDir is the configured base, or the working directory when none was
// set.
func (s *FileSet) BaseDir() string {
	s.mu.RLock()
	base := s.baseDir
	s.mu.RUnlock()
	if base != "" {
		return base
	}
	wd, _ := os.Getwd()
	return wd
}

// Add stores content as given under a fresh FileID. Adding a path again
// keeps the old version reachable by its ID.
func (s *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	f := &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    Digest(sha256.Sum256(content)),
		Flags:   flags,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = FileID(len(s.files))
	s.files = append(s.files, f)
	s.latest[f.Path] = f.ID
	return f.ID
}

// Load reads path from fsys and adds it normalized.
func (s *FileSet) Load(fsys afero.Fs, path string) (FileID, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0, err
	}
	return s.AddNormalized(path, content), nil
}

// AddNormalized strips a UTF-8 BOM and CRLF line endings, records what it
// stripped in the flags and adds the result.
func (s *FileSet) AddNormalized(path string, content []byte, extra ...FileFlags) FileID {
	var flags FileFlags
	for _, f := range extra {
		flags |= f
	}
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return s.Add(path, content, flags)
}

func (s *FileSet) AddVirtual(name string, content []byte) FileID {
	return s.Add(name, content, FileVirtual)
}

// Get returns nil for an unknown id.
func (s *FileSet) Get(id FileID) *File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < len(s.files) {
		return s.files[id]
	}
	return nil
}

// Len counts file versions, not distinct paths.
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// GetLatest returns the newest version of path.
func (s *FileSet) GetLatest(path string) (FileID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.latest[normalizePath(path)]
	return id, ok
}

func (s *FileSet) Resolve(span Span) (start, end LineCol) {
	f := s.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Location is the path-based form of span, stable across runs.
func (s *FileSet) Location(span Span) Location {
	f := s.Get(span.File)
	if f == nil {
		return Location{}
	}
	return Location{Path: f.Path, Start: span.Start, End: span.End}
}

// LineStart returns the offset of the first byte of the line containing off.
func (f *File) LineStart(off uint32) uint32 {
	return off - (toLineCol(f.LineIdx, off).Col - 1)
}

// GetLine returns 1-based line n without its newline, or "" past the end.
func (f *File) GetLine(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	start := 0
	if n > 1 {
		start = int(f.LineIdx[n-2]) + 1
	}
	end := len(f.Content)
	if int(n) <= len(f.LineIdx) {
		end = int(f.LineIdx[n-1])
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath renders f.Path for display. mode is absolute, relative
// (to baseDir), basename or auto; auto shortens long absolute paths to
// their base name.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case "relative":
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return BaseName(f.Path)
	case "auto":
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return BaseName(f.Path)
		}
	}
	return f.Path
}
