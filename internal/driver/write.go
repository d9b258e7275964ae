package driver

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"durian/internal/compilation"
	"durian/internal/diag"
	"durian/internal/generator"
	"durian/internal/source"
)

// write stores every source next to the package and removes generated
// files left behind by generators that no longer emit anything. Failures
// become diagnostics.
func (r *runner) write(c *compilation.Compilation, results []generator.Result, bag *diag.Bag, log logrus.FieldLogger) []Output {
	if c.Dir == "" {
		return inMemory(results)
	}
	var outs []Output
	emitted := make(map[string]bool)
	for _, res := range results {
		for _, s := range res.Sources {
			path := filepath.Join(c.Dir, s.Name)
			emitted[s.Name] = true
			o := Output{Generator: res.Generator, Path: path, Content: s.Content}
			if old, err := afero.ReadFile(r.fsOrMem(), path); err == nil && bytes.Equal(old, s.Content) {
				o.Unchanged = true
			}
			if !o.Unchanged && !r.opts.DryRun {
				if err := afero.WriteFile(r.opts.Output, path, s.Content, 0o644); err != nil {
					bag.Add(diag.New(diag.WriteOutputFailed, source.Span{}, path, err))
					continue
				}
				log.WithField("file", path).Info("generated")
			}
			outs = append(outs, o)
		}
	}
	for _, g := range r.gens {
		name := generator.FileName(g.Name())
		if emitted[name] {
			continue
		}
		path := filepath.Join(c.Dir, name)
		stale, err := isOwnOutput(r.fsOrMem(), path)
		if err != nil || !stale {
			continue
		}
		if !r.opts.DryRun {
			if err := r.opts.Output.Remove(path); err != nil {
				bag.Add(diag.New(diag.WriteOutputFailed, source.Span{}, path, err))
				continue
			}
			log.WithField("file", path).Info("removed stale output")
		}
		outs = append(outs, Output{Generator: g.Name(), Path: path, Removed: true})
	}
	return outs
}

// fsOrMem is the filesystem outputs are compared against. A dry run
// without Output compares against nothing.
func (r *runner) fsOrMem() afero.Fs {
	if r.opts.Output != nil {
		return r.opts.Output
	}
	return afero.NewMemMapFs()
}

func inMemory(results []generator.Result) []Output {
	var outs []Output
	for _, res := range results {
		for _, s := range res.Sources {
			outs = append(outs, Output{Generator: res.Generator, Path: s.Name, Content: s.Content})
		}
	}
	return outs
}

var ownHeader = []byte(strings.SplitN(generator.HeaderFormat, "%s", 2)[0])

// isOwnOutput reports whether path holds a file durian generated.
func isOwnOutput(fs afero.Fs, path string) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	head := make([]byte, len(ownHeader))
	n, _ := f.Read(head)
	return bytes.Equal(head[:n], ownHeader), nil
}

// Clean removes every durian generated file below the package directories
// of comps, or only those of the named generators.
func Clean(out afero.Fs, comps []*compilation.Compilation, generators []string, dryRun bool) ([]string, error) {
	var removed []string
	for _, c := range comps {
		if c.Dir == "" {
			continue
		}
		matches, err := afero.Glob(out, filepath.Join(c.Dir, generator.FileName("*")))
		if err != nil {
			return removed, err
		}
		for _, path := range matches {
			if !selected(path, generators) {
				continue
			}
			own, err := isOwnOutput(out, path)
			if err != nil {
				return removed, err
			}
			if !own {
				continue
			}
			if !dryRun {
				if err := out.Remove(path); err != nil {
					return removed, err
				}
			}
			removed = append(removed, path)
		}
	}
	return removed, nil
}

func selected(path string, generators []string) bool {
	if len(generators) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, g := range generators {
		if base == generator.FileName(g) {
			return true
		}
	}
	return false
}
