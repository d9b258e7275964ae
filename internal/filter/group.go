package filter

import (
	"iter"

	"durian/internal/pass"
)

// Group runs filters as ordered phases. Iterating the group runs the
// filters one after another; iterating again starts over.
type Group[T any] struct {
	name    string
	filters []SyntaxFilter[T]
}

func NewGroup[T any](name string, filters ...SyntaxFilter[T]) *Group[T] {
	return &Group[T]{name: name, filters: filters}
}

func (g *Group[T]) Name() string { return g.name }

// Add appends a phase.
func (g *Group[T]) Add(f SyntaxFilter[T]) *Group[T] {
	g.filters = append(g.filters, f)
	return g
}

func (g *Group[T]) Filters() []SyntaxFilter[T] {
	return append([]SyntaxFilter[T](nil), g.filters...)
}

func (g *Group[T]) Len() int { return len(g.filters) }

// Filtrate concatenates the output of every phase lazily.
func (g *Group[T]) Filtrate(pc *pass.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, f := range g.filters {
			if pc.Err() != nil {
				return
			}
			for v := range f.Filtrate(pc) {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Collect materializes the output of every phase.
func (g *Group[T]) Collect(pc *pass.Context) []T {
	var out []T
	for v := range g.Filtrate(pc) {
		out = append(out, v)
	}
	return out
}
