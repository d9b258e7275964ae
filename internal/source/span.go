package source

import (
	"fmt"
)

// Span addresses a byte range inside one file of a FileSet.
type Span struct {
	File  FileID
	Start uint32 // inclusive byte offset
	End   uint32 // exclusive byte offset
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether other lies completely inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Location is a FileSet independent fingerprint of a span: the normalized
// file path plus byte offsets. Two passes over identical code produce equal
// locations even though their FileIDs differ.
type Location struct {
	Path  string
	Start uint32
	End   uint32
}

func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d-%d", l.Path, l.Start, l.End)
}

// Less orders locations by path, then start, then end.
func (l Location) Less(other Location) bool {
	if l.Path != other.Path {
		return l.Path < other.Path
	}
	if l.Start != other.Start {
		return l.Start < other.Start
	}
	return l.End < other.End
}
