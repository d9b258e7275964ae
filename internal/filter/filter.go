// Package filter selects the declarations a generator will act on.
//
// A filter collects candidate nodes in source order, resolves each into a
// member.MemberData, validates it and yields the accepted ones. Rejected
// candidates produce diagnostics through the pass context and never stop
// the pass. Filters are grouped into ordered phases with Group.
package filter

import (
	"go/ast"
	"iter"

	"durian/internal/compilation"
	"durian/internal/directive"
	"durian/internal/member"
	"durian/internal/pass"
)

// SyntaxFilter yields the accepted values of one pass, lazily.
type SyntaxFilter[T any] interface {
	Name() string
	Filtrate(pc *pass.Context) iter.Seq[T]
}

// Data is implemented by values derived from a member.
type Data interface {
	Member() *member.MemberData
}

// NodeState is the life cycle of one candidate.
type NodeState uint8

const (
	StateCandidate NodeState = iota
	StateCacheHit
	StateResolving
	StateRejected
	StateAccepted
)

func (s NodeState) String() string {
	switch s {
	case StateCandidate:
		return "candidate"
	case StateCacheHit:
		return "cache-hit"
	case StateResolving:
		return "resolving"
	case StateRejected:
		return "rejected"
	case StateAccepted:
		return "accepted"
	}
	return "unknown"
}

// Candidate is a declaration node selected by a collector.
type Candidate struct {
	File       *ast.File
	Node       ast.Node
	Directives directive.List
}

// Collector returns candidates of a compilation in source order.
type Collector func(c *compilation.Compilation) []Candidate

// NodeKind classifies candidate nodes syntactically.
type NodeKind uint8

const (
	NodeFunc         NodeKind = 1 << iota // *ast.FuncDecl
	NodeType                              // *ast.TypeSpec other than func types
	NodeDelegateType                      // *ast.TypeSpec of a func type
	NodeField                             // *ast.Field of a struct
	NodeValue                             // *ast.ValueSpec

	NodeAny = NodeFunc | NodeType | NodeDelegateType | NodeField | NodeValue
)

// KindOf returns the syntactic kind of n, or 0 for other nodes.
func KindOf(n ast.Node) NodeKind {
	switch n := n.(type) {
	case *ast.FuncDecl:
		return NodeFunc
	case *ast.TypeSpec:
		if _, ok := n.Type.(*ast.FuncType); ok && !n.Assign.IsValid() {
			return NodeDelegateType
		}
		return NodeType
	case *ast.Field:
		return NodeField
	case *ast.ValueSpec:
		return NodeValue
	}
	return 0
}

// ByDirective collects the declarations of the given kinds that carry the
// directive name.
func ByDirective(name string, kinds NodeKind) Collector {
	return func(c *compilation.Compilation) []Candidate {
		occ := c.Directives().FilterByName(name)
		out := make([]Candidate, 0, len(occ))
		for _, o := range occ {
			if KindOf(o.Node)&kinds == 0 {
				continue
			}
			out = append(out, Candidate{File: o.File, Node: o.Node, Directives: o.Directives})
		}
		return out
	}
}
