package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"durian/internal/diag"
	"durian/internal/generator"
	"durian/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores the outcome of a package run keyed by package
// generation and configuration. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// DiskPayload is everything needed to replay a package run.
type DiskPayload struct {
	Schema      uint16
	Version     string
	PkgPath     string
	Sources     []CachedSource
	Diagnostics []CachedDiagnostic
}

type CachedSource struct {
	Generator string
	Name      string
	Content   []byte
	Members   []source.Location
}

// CachedDiagnostic is a diagnostic with spans replaced by path based
// locations, so it survives a new FileSet.
type CachedDiagnostic struct {
	Code     uint16
	Args     []string
	Severity uint8
	Primary  source.Location
	Notes    []CachedNote
}

type CachedNote struct {
	At  source.Location
	Msg string
}

// DefaultCacheDir is $XDG_CACHE_HOME/durian, falling back to ~/.cache/durian.
func DefaultCacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "durian"), nil
}

// OpenDiskCache prepares a cache rooted at dir on fs.
func OpenDiskCache(fs afero.Fs, dir string) (*DiskCache, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{fs: fs, dir: dir}, nil
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key source.Digest) string {
	return filepath.Join(c.dir, "pkgs", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key source.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = diskCacheSchemaVersion
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	p := c.pathFor(key)
	if err := c.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(c.fs, filepath.Dir(p), "tmp-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = c.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	return c.fs.Rename(tmp, p)
}

// ErrSchemaMismatch reports an entry written by another cache format.
var ErrSchemaMismatch = errors.New("disk cache schema mismatch")

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key source.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := afero.ReadFile(c.fs, c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, fmt.Errorf("%w: %d", ErrSchemaMismatch, out.Schema)
	}
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fs.RemoveAll(filepath.Join(c.dir, "pkgs"))
}

func toPayload(fs *source.FileSet, pkgPath, version string, results []generator.Result, diags []diag.Diagnostic) *DiskPayload {
	p := &DiskPayload{Version: version, PkgPath: pkgPath}
	for _, r := range results {
		for _, s := range r.Sources {
			p.Sources = append(p.Sources, CachedSource{
				Generator: r.Generator,
				Name:      s.Name,
				Content:   s.Content,
				Members:   s.Members,
			})
		}
	}
	for _, d := range diags {
		cd := CachedDiagnostic{
			Code:     uint16(d.Code()),
			Args:     d.Args,
			Severity: uint8(d.Severity),
			Primary:  fs.Location(d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{At: fs.Location(n.Span), Msg: n.Msg})
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// fromPayload restores results and diagnostics. Locations whose file is no
// longer in fs make the entry unusable.
func fromPayload(fs *source.FileSet, p *DiskPayload) ([]generator.Result, []diag.Diagnostic, error) {
	var results []generator.Result
	byGen := make(map[string]int)
	for _, s := range p.Sources {
		i, ok := byGen[s.Generator]
		if !ok {
			i = len(results)
			byGen[s.Generator] = i
			results = append(results, generator.Result{Generator: s.Generator})
		}
		results[i].Sources = append(results[i].Sources, generator.Source{Name: s.Name, Content: s.Content, Members: s.Members})
		results[i].Accepted += len(s.Members)
	}
	diags := make([]diag.Diagnostic, 0, len(p.Diagnostics))
	for _, cd := range p.Diagnostics {
		desc, ok := diag.Lookup(diag.Code(cd.Code))
		if !ok {
			return nil, nil, fmt.Errorf("unknown code %s", diag.Code(cd.Code).ID())
		}
		primary, err := spanOf(fs, cd.Primary)
		if err != nil {
			return nil, nil, err
		}
		d := diag.Diagnostic{
			Descriptor: desc,
			Args:       cd.Args,
			Severity:   diag.Severity(cd.Severity),
			Primary:    primary,
		}
		for _, n := range cd.Notes {
			sp, err := spanOf(fs, n.At)
			if err != nil {
				return nil, nil, err
			}
			d = d.WithNote(sp, n.Msg)
		}
		diags = append(diags, d)
	}
	return results, diags, nil
}

func spanOf(fs *source.FileSet, loc source.Location) (source.Span, error) {
	if loc.IsZero() {
		return source.Span{}, nil
	}
	id, ok := fs.GetLatest(loc.Path)
	if !ok {
		return source.Span{}, fmt.Errorf("file %s is not loaded", loc.Path)
	}
	return source.Span{File: id, Start: loc.Start, End: loc.End}, nil
}
