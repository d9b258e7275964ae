package diagfmt

import (
	"fmt"
	"io"

	"durian/internal/diag"
	"durian/internal/source"
)

// Short writes one line per diagnostic, notes included.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	out := diag.FormatPlain(bag.Items(), fs, diag.PlainOptions{Notes: true})
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// Write renders bag in format. Color only affects FormatPretty.
func Write(w io.Writer, format Format, bag *diag.Bag, fs *source.FileSet, colored bool) error {
	switch format {
	case FormatShort:
		return Short(w, bag, fs)
	case FormatJSON:
		return JSON(w, bag, fs, JSONOpts{
			IncludePositions: true,
			PathMode:         PathModeRelative,
			IncludeNotes:     true,
			IncludeFixes:     true,
		})
	default:
		Pretty(w, bag, fs, PrettyOpts{
			Color:     colored,
			Context:   1,
			PathMode:  PathModeRelative,
			ShowNotes: true,
			ShowFixes: true,
		})
		return nil
	}
}
