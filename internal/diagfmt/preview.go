package diagfmt

import (
	"bytes"
	"fmt"
	"strings"

	"durian/internal/diag"
	"durian/internal/source"
)

// editPreview holds the whole lines an edit touches, before and after it.
type editPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.TextEdit) (editPreview, error) {
	if fs == nil {
		return editPreview{}, fmt.Errorf("nil FileSet")
	}
	f := fs.Get(edit.Span.File)
	if f == nil {
		return editPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	if edit.Span.End < edit.Span.Start || int(edit.Span.End) > len(f.Content) {
		return editPreview{}, fmt.Errorf("edit span %s out of range", edit.Span)
	}
	start := int(f.LineStart(edit.Span.Start))
	end := len(f.Content)
	if i := bytes.IndexByte(f.Content[edit.Span.End:], '\n'); i >= 0 {
		end = int(edit.Span.End) + i + 1
	}
	block := f.Content[start:end]
	relStart, relEnd := int(edit.Span.Start)-start, int(edit.Span.End)-start

	var after bytes.Buffer
	after.Write(block[:relStart])
	after.WriteString(edit.NewText)
	after.Write(block[relEnd:])
	return editPreview{before: previewLines(block), after: previewLines(after.Bytes())}, nil
}

// previewLines splits content into lines without the final newline.
func previewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}
