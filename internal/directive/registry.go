package directive

import (
	"go/ast"
	"go/token"
	"sync"
)

// Occurrence is a declaration node carrying at least one directive.
// Node is one of *ast.FuncDecl, *ast.TypeSpec, *ast.ValueSpec or *ast.Field.
type Occurrence struct {
	File       *ast.File
	Node       ast.Node
	Directives List
	// Order is the position of the occurrence in collection order.
	Order int
}

// Registry collects every directive occurrence of a compilation in source
// order. It is populated once per compilation and then only read.
type Registry struct {
	mu       sync.Mutex
	items    []Occurrence
	byName   map[string][]int
	byNode   map[ast.Node]int
	problems []Problem
}

// NewRegistry creates an empty directive registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string][]int),
		byNode: make(map[ast.Node]int),
	}
}

// Add registers a new occurrence.
func (r *Registry) Add(o Occurrence) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := len(r.items)
	o.Order = idx
	r.items = append(r.items, o)
	r.byNode[o.Node] = idx
	seen := make(map[string]bool, len(o.Directives))
	for _, d := range o.Directives {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		r.byName[d.Name] = append(r.byName[d.Name], idx)
	}
}

// All returns all occurrences.
func (r *Registry) All() []Occurrence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Occurrence(nil), r.items...)
}

// FilterByName returns occurrences carrying any of names, in source order.
// Empty names returns everything.
func (r *Registry) FilterByName(names ...string) []Occurrence {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(names) == 0 {
		return append([]Occurrence(nil), r.items...)
	}
	if len(names) == 1 {
		idx := r.byName[names[0]]
		out := make([]Occurrence, len(idx))
		for i, j := range idx {
			out[i] = r.items[j]
		}
		return out
	}

	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	var result []Occurrence
	for _, o := range r.items {
		for _, d := range o.Directives {
			if allowed[d.Name] {
				result = append(result, o)
				break
			}
		}
	}
	return result
}

// Lookup returns the directives attached to node.
func (r *Registry) Lookup(node ast.Node) (List, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byNode[node]
	if !ok {
		return nil, false
	}
	return r.items[idx].Directives, true
}

// Len returns the total number of occurrences.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Problems returns the comments that looked like directives but failed to
// parse.
func (r *Registry) Problems() []Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Problem(nil), r.problems...)
}

// CollectFromFile records every top-level declaration and struct field of
// file that carries directives. Function bodies are not entered.
func (r *Registry) CollectFromFile(file *ast.File) {
	for _, decl := range file.Decls {
		switch decl := decl.(type) {
		case *ast.FuncDecl:
			r.record(file, decl, decl.Doc)
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				var docs []*ast.CommentGroup
				if decl.Lparen == token.NoPos {
					docs = append(docs, decl.Doc)
				}
				switch s := spec.(type) {
				case *ast.TypeSpec:
					r.record(file, s, append(docs, s.Doc, s.Comment)...)
					r.collectType(file, s.Type)
				case *ast.ValueSpec:
					r.record(file, s, append(docs, s.Doc, s.Comment)...)
				}
			}
		}
	}
}

func (r *Registry) collectType(file *ast.File, expr ast.Expr) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		r.collectType(file, t.X)
	case *ast.StructType:
		if t.Fields == nil {
			return
		}
		for _, f := range t.Fields.List {
			r.record(file, f, f.Doc, f.Comment)
			r.collectType(file, f.Type)
		}
	}
}

func (r *Registry) record(file *ast.File, node ast.Node, docs ...*ast.CommentGroup) {
	list, problems := FromComments(docs...)
	if len(problems) > 0 {
		r.mu.Lock()
		r.problems = append(r.problems, problems...)
		r.mu.Unlock()
	}
	if len(list) == 0 {
		return
	}
	r.Add(Occurrence{File: file, Node: node, Directives: list})
}
