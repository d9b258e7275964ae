package compilation

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"durian/internal/source"
)

// FromSources builds a compilation from in-memory files keyed by file name.
// Syntax errors fail the call; type errors are recorded as problems.
func FromSources(files *source.FileSet, pkgPath string, srcs map[string]string) (*Compilation, error) {
	if files == nil {
		files = source.NewFileSet()
	}
	names := make([]string, 0, len(srcs))
	for name := range srcs {
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	c := &Compilation{
		PkgPath: pkgPath,
		Fset:    fset,
		Files:   files,
		fileIDs: make(map[string]source.FileID, len(names)),
	}
	for _, name := range names {
		content := []byte(srcs[name])
		var extra source.FileFlags
		if isGeneratedSource(content) {
			extra = source.FileGenerated
		}
		id := files.AddNormalized(name, content, extra|source.FileVirtual)
		f, err := parser.ParseFile(fset, name, files.Get(id).Content, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		c.fileIDs[name] = id
		c.Syntax = append(c.Syntax, f)
	}

	c.Info = newInfo()
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error: func(err error) {
			if te, ok := err.(types.Error); ok {
				c.Problems = append(c.Problems, Problem{Pos: te.Pos, Msg: te.Msg})
				return
			}
			c.Problems = append(c.Problems, Problem{Msg: err.Error()})
		},
	}
	pkg, _ := conf.Check(pkgPath, fset, c.Syntax, c.Info)
	c.Types = pkg
	c.finish()
	return c, nil
}

// MustFromSources is FromSources for tests and examples; it panics on error.
func MustFromSources(pkgPath string, srcs map[string]string) *Compilation {
	c, err := FromSources(nil, pkgPath, srcs)
	if err != nil {
		panic(err)
	}
	return c
}

// Decl returns the first top-level declaration named name: a *ast.FuncDecl
// (receiver methods as "Type.Method") or a *ast.TypeSpec / *ast.ValueSpec.
func (c *Compilation) Decl(name string) ast.Node {
	for _, f := range c.Syntax {
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.FuncDecl:
				if funcName(d) == name {
					return d
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						if s.Name.Name == name {
							return s
						}
					case *ast.ValueSpec:
						for _, n := range s.Names {
							if n.Name == name {
								return s
							}
						}
					}
				}
			}
		}
	}
	return nil
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	return ReceiverTypeName(fn) + "." + fn.Name.Name
}

// ReceiverTypeName returns the base type name of fn's receiver, stripping
// pointers and type parameters. It is empty for plain functions.
func ReceiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}
