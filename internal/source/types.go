package source

import (
	"bytes"
	"fmt"
)

type FileID uint32

type FileFlags uint8

const (
	// FileVirtual marks content that did not come from disk.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM and FileNormalizedCRLF record what AddNormalized stripped,
	// so Restore can put it back before writing.
	FileHadBOM
	FileNormalizedCRLF
	// FileGenerated marks output of a durian generator.
	FileGenerated
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is one version of a source file. Content is normalized: no BOM and
// \n line endings. LineIdx holds the offset of every newline.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    Digest
	Flags   FileFlags
}

// Restore converts content derived from f back to the on-disk conventions
// f was loaded with.
func (f *File) Restore(content []byte) []byte {
	if f.Flags&FileNormalizedCRLF != 0 {
		content = bytes.ReplaceAll(content, []byte("\n"), []byte("\r\n"))
	}
	if f.Flags&FileHadBOM != 0 {
		content = append(append([]byte(nil), utf8BOM...), content...)
	}
	return content
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}
