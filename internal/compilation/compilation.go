// Package compilation holds the immutable snapshot a generator pass works on:
// one type-checked Go package, its syntax and the source.FileSet that backs
// every span reported about it.
package compilation

import (
	"go/ast"
	"go/token"
	"go/types"
	"regexp"
	"slices"
	"sync"

	"fortio.org/safecast"

	"durian/internal/directive"
	"durian/internal/source"
)

// Problem is an error found while loading or checking the package.
type Problem struct {
	// Fatal problems mean generators cannot run on the package.
	Fatal bool
	Pos   token.Pos
	Msg   string
}

// Compilation is a type-checked package. It is read-only after
// construction and safe for concurrent use.
type Compilation struct {
	PkgPath string
	Name    string
	Dir     string

	Fset   *token.FileSet
	Files  *source.FileSet
	Syntax []*ast.File
	Types  *types.Package
	Info   *types.Info

	Problems []Problem

	// Generation identifies the package content. Two compilations with the
	// same generation were built from identical non-generated sources.
	Generation source.Digest

	fileIDs map[string]source.FileID

	modelsMu sync.Mutex
	models   map[*ast.File]*SemanticModel

	directivesOnce sync.Once
	directives     *directive.Registry
}

func newInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
}

// finish sorts syntax by file name and computes the generation digest.
func (c *Compilation) finish() {
	slices.SortFunc(c.Syntax, func(a, b *ast.File) int {
		na, nb := c.Fset.File(a.FileStart).Name(), c.Fset.File(b.FileStart).Name()
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	})
	deps := make([]source.Digest, 0, len(c.Syntax))
	for _, f := range c.Syntax {
		sf := c.SourceFile(f)
		if sf == nil || sf.Flags&source.FileGenerated != 0 {
			continue
		}
		deps = append(deps, source.HashString(sf.Path), sf.Hash)
	}
	c.Generation = source.Combine(source.HashString(c.PkgPath), deps...)
	if c.Name == "" && len(c.Syntax) > 0 {
		c.Name = c.Syntax[0].Name.Name
	}
}

// HasFatal reports whether the package could not be loaded or parsed.
func (c *Compilation) HasFatal() bool {
	for _, p := range c.Problems {
		if p.Fatal {
			return true
		}
	}
	return c.Types == nil || c.Info == nil
}

// SourceFile returns the source.File that file was parsed from.
func (c *Compilation) SourceFile(file *ast.File) *source.File {
	tf := c.Fset.File(file.FileStart)
	if tf == nil {
		return nil
	}
	id, ok := c.fileIDs[tf.Name()]
	if !ok {
		return nil
	}
	return c.Files.Get(id)
}

// IsGenerated reports whether file carries the standard generated-code header.
func (c *Compilation) IsGenerated(file *ast.File) bool {
	sf := c.SourceFile(file)
	return sf != nil && sf.Flags&source.FileGenerated != 0
}

// UserDeclared reports whether obj is declared in a non-generated file of
// the package. Objects from earlier generator output do not count.
func (c *Compilation) UserDeclared(obj types.Object) bool {
	if obj == nil || obj.Pkg() != c.Types {
		return false
	}
	f := c.FileOf(obj.Pos())
	return f != nil && !c.IsGenerated(f)
}

// FileOf returns the syntax file containing pos.
func (c *Compilation) FileOf(pos token.Pos) *ast.File {
	for _, f := range c.Syntax {
		if f.FileStart <= pos && pos <= f.FileEnd {
			return f
		}
	}
	return nil
}

// Span converts a node into a source span. ok is false for nodes that do
// not belong to this compilation.
func (c *Compilation) Span(n ast.Node) (source.Span, bool) {
	return c.PosSpan(n.Pos(), n.End())
}

// PosSpan converts a position range into a source span.
func (c *Compilation) PosSpan(pos, end token.Pos) (source.Span, bool) {
	if !pos.IsValid() {
		return source.Span{}, false
	}
	tf := c.Fset.File(pos)
	if tf == nil {
		return source.Span{}, false
	}
	id, ok := c.fileIDs[tf.Name()]
	if !ok {
		return source.Span{}, false
	}
	if !end.IsValid() || end < pos {
		end = pos
	}
	start, err := safecast.Conv[uint32](tf.Offset(pos))
	if err != nil {
		return source.Span{}, false
	}
	stop, err := safecast.Conv[uint32](tf.Offset(end))
	if err != nil {
		return source.Span{}, false
	}
	return source.Span{File: id, Start: start, End: stop}, true
}

// Location returns the path based fingerprint of n.
func (c *Compilation) Location(n ast.Node) (source.Location, bool) {
	return c.PosLocation(n.Pos(), n.End())
}

// PosLocation returns the path based fingerprint of a position range.
func (c *Compilation) PosLocation(pos, end token.Pos) (source.Location, bool) {
	sp, ok := c.PosSpan(pos, end)
	if !ok {
		return source.Location{}, false
	}
	return c.Files.Location(sp), true
}

// Model returns the semantic model of file. Models are created once.
func (c *Compilation) Model(file *ast.File) *SemanticModel {
	c.modelsMu.Lock()
	defer c.modelsMu.Unlock()
	if m, ok := c.models[file]; ok {
		return m
	}
	if c.models == nil {
		c.models = make(map[*ast.File]*SemanticModel)
	}
	m := &SemanticModel{comp: c, file: file}
	c.models[file] = m
	return m
}

// Directives returns every durian directive of the non-generated files in
// source order.
func (c *Compilation) Directives() *directive.Registry {
	c.directivesOnce.Do(func() {
		r := directive.NewRegistry()
		for _, f := range c.Syntax {
			if c.IsGenerated(f) {
				continue
			}
			r.CollectFromFile(f)
		}
		c.directives = r
	})
	return c.directives
}

var generatedHeader = regexp.MustCompile(`(?m)^// Code generated .* DO NOT EDIT\.$`)

// isGeneratedSource applies the go generate header convention to content
// preceding the package clause.
func isGeneratedSource(content []byte) bool {
	head := content
	if loc := packageClause.FindIndex(content); loc != nil {
		head = content[:loc[0]]
	}
	return generatedHeader.Match(head)
}

var packageClause = regexp.MustCompile(`(?m)^package\s`)
