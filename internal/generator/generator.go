// Package generator turns the members accepted by a filter group into one
// generated Go file per package.
package generator

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"durian/internal/compilation"
	"durian/internal/filter"
	"durian/internal/pass"
	"durian/internal/source"
	"durian/internal/trace"
)

// Generator is what the driver runs for every package.
type Generator interface {
	Name() string
	Generate(pc *pass.Context) (Result, error)
}

// Source is one emitted file.
type Source struct {
	Name    string
	Content []byte
	// Members lists the declarations the file was generated for.
	Members []source.Location
}

// Result is the output of one generator over one package.
type Result struct {
	Generator string
	Sources   []Source
	Accepted  int
}

// Template emits the code for one accepted value.
type Template[T any] interface {
	FileName(comp *compilation.Compilation) string
	Emit(pc *pass.Context, f *File, v T) error
}

// SourceGenerator runs a filter, usually a filter.Group, and feeds every
// accepted value to a template.
type SourceGenerator[T filter.Data] struct {
	name   string
	filter filter.SyntaxFilter[T]
	tmpl   Template[T]
}

func New[T filter.Data](name string, f filter.SyntaxFilter[T], tmpl Template[T]) *SourceGenerator[T] {
	if f == nil || tmpl == nil {
		panic("generator: nil filter or template")
	}
	return &SourceGenerator[T]{name: name, filter: f, tmpl: tmpl}
}

func (g *SourceGenerator[T]) Name() string { return g.name }

func (g *SourceGenerator[T]) Filter() filter.SyntaxFilter[T] { return g.filter }

// Generate runs one pass. A package without accepted members, or whose
// members emit nothing, produces no source.
func (g *SourceGenerator[T]) Generate(pc *pass.Context) (Result, error) {
	res := Result{Generator: g.name}
	comp := pc.Compilation()
	if comp == nil {
		return res, nil
	}
	pc, span := pc.StartSpan(trace.ScopeGenerator, "generate:"+g.name)
	span.WithExtra("package", comp.PkgPath)
	defer func() {
		span.WithExtra("accepted", strconv.Itoa(res.Accepted)).End("")
	}()
	pc.LogInput()

	var (
		file    *File
		members []source.Location
	)
	for v := range g.filter.Filtrate(pc) {
		m := v.Member()
		res.Accepted++
		if file == nil {
			file = NewFile(g.tmpl.FileName(comp), comp.PkgPath, comp.Name)
		}
		before := file.Decls()
		if err := g.tmpl.Emit(pc, file, v); err != nil {
			return res, fmt.Errorf("%s: emit %s: %w", g.name, m.QualifiedName(), err)
		}
		if file.Decls() > before {
			members = append(members, m.Location())
		}
	}
	if err := pc.Err(); err != nil {
		return res, err
	}
	if file == nil || file.Decls() == 0 {
		pc.Logger().WithField("accepted", res.Accepted).Debug("nothing to generate")
		return res, nil
	}

	content, err := file.Render(g.name)
	if err != nil {
		return res, fmt.Errorf("%s: %w", g.name, err)
	}
	pc.LogGenerated(file.Name, content)
	pc.Logger().WithFields(logrus.Fields{
		"file":    file.Name,
		"members": len(members),
	}).Debug("generated source")
	res.Sources = append(res.Sources, Source{Name: file.Name, Content: content, Members: members})
	return res, nil
}

// FileName is the conventional name of a generator's output file.
func FileName(generator string) string {
	return "zz_durian_" + generator + ".go"
}

// Fixed is a Template helper for generators whose file name does not
// depend on the package.
type Fixed string

func (n Fixed) FileName(*compilation.Compilation) string { return string(n) }
