// Package member turns declaration syntax into MemberData records: the
// declaration, its symbol, location and directives, and the containing
// types and namespaces computed on first use.
package member

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
	"sync"

	"golang.org/x/tools/go/ast/astutil"

	"durian/internal/compilation"
	"durian/internal/directive"
	"durian/internal/source"
)

// Container is a declaration that encloses a member: a named type or a
// struct typed field.
type Container struct {
	Name       string
	Node       ast.Node
	Directives directive.List
}

// IsPartial reports whether the container opted in to generated members.
func (c Container) IsPartial() bool {
	return c.Directives.Has(directive.Partial)
}

// MemberData is the resolved view of one declaration. Exactly one of the
// kind specific payloads is set, matching Kind.
type MemberData struct {
	kind       Kind
	node       ast.Node
	ident      *ast.Ident
	symbol     types.Object
	model      *compilation.SemanticModel
	location   source.Location
	span       source.Span
	directives directive.List

	field    *FieldInfo
	method   *MethodInfo
	typ      *TypeInfo
	event    *EventInfo
	delegate *DelegateInfo

	siblings []*MemberData

	containersOnce sync.Once
	containers     []Container
	namespaceOnce  sync.Once
	namespaces     []string
}

// Member returns m itself so MemberData satisfies data interfaces that
// expose the underlying member.
func (m *MemberData) Member() *MemberData { return m }

func (m *MemberData) Kind() Kind { return m.kind }

// Node is the declaration node. Declarators of one multi-name field share it.
func (m *MemberData) Node() ast.Node { return m.node }

func (m *MemberData) Ident() *ast.Ident { return m.ident }

func (m *MemberData) Name() string {
	if m.ident == nil {
		return ""
	}
	return m.ident.Name
}

func (m *MemberData) Symbol() types.Object { return m.symbol }

func (m *MemberData) Compilation() *compilation.Compilation { return m.model.Compilation() }

func (m *MemberData) Model() *compilation.SemanticModel { return m.model }

// Location is the cache key of the member.
func (m *MemberData) Location() source.Location { return m.location }

func (m *MemberData) Span() source.Span { return m.span }

// Directives is the member's attribute list.
func (m *MemberData) Directives() directive.List { return m.directives }

// IsPartial reports whether the member itself carries //durian:partial.
func (m *MemberData) IsPartial() bool { return m.directives.Has(directive.Partial) }

func (m *MemberData) Field() (*FieldInfo, bool) { return m.field, m.field != nil }

func (m *MemberData) Method() (*MethodInfo, bool) { return m.method, m.method != nil }

func (m *MemberData) Type() (*TypeInfo, bool) { return m.typ, m.typ != nil }

func (m *MemberData) Event() (*EventInfo, bool) { return m.event, m.event != nil }

func (m *MemberData) Delegate() (*DelegateInfo, bool) { return m.delegate, m.delegate != nil }

// UnderlyingFields returns every declarator sharing m's declaration,
// including m. Single declarator members return themselves.
func (m *MemberData) UnderlyingFields() []*MemberData {
	if len(m.siblings) == 0 {
		return []*MemberData{m}
	}
	return append([]*MemberData(nil), m.siblings...)
}

// ContainingTypes returns the enclosing types outermost first. With
// includeSelf a type-like member appends itself.
func (m *MemberData) ContainingTypes(includeSelf bool) []Container {
	m.containersOnce.Do(func() { m.containers = m.computeContainers() })
	out := append([]Container(nil), m.containers...)
	if includeSelf && m.kind.TypeLike() {
		out = append(out, Container{Name: m.Name(), Node: m.node, Directives: m.directives})
	}
	return out
}

// ContainingNamespaces returns the package path segments outermost first.
func (m *MemberData) ContainingNamespaces() []string {
	m.namespaceOnce.Do(func() {
		path := m.Compilation().PkgPath
		if path == "" {
			return
		}
		m.namespaces = strings.Split(path, "/")
	})
	return append([]string(nil), m.namespaces...)
}

// QualifiedName joins the containing types and the member name with dots.
func (m *MemberData) QualifiedName() string {
	parts := make([]string, 0, 4)
	for _, c := range m.ContainingTypes(false) {
		parts = append(parts, c.Name)
	}
	return strings.Join(append(parts, m.Name()), ".")
}

func (m *MemberData) String() string {
	return fmt.Sprintf("%s %s at %s", m.kind, m.QualifiedName(), m.location)
}

func (m *MemberData) computeContainers() []Container {
	comp := m.Compilation()
	registry := comp.Directives()

	if m.method != nil {
		if m.method.ReceiverType == "" {
			return nil
		}
		spec, ok := comp.Decl(m.method.ReceiverType).(*ast.TypeSpec)
		if !ok {
			return nil
		}
		list, _ := registry.Lookup(spec)
		return []Container{{Name: spec.Name.Name, Node: spec, Directives: list}}
	}

	path, _ := astutil.PathEnclosingInterval(m.model.File(), m.node.Pos(), m.node.End())
	var chain []Container
	for _, n := range path {
		if n == m.node {
			continue
		}
		switch n := n.(type) {
		case *ast.TypeSpec:
			list, _ := registry.Lookup(n)
			chain = append(chain, Container{Name: n.Name.Name, Node: n, Directives: list})
		case *ast.Field:
			if len(n.Names) == 0 {
				continue
			}
			list, _ := registry.Lookup(n)
			chain = append(chain, Container{Name: n.Names[0].Name, Node: n, Directives: list})
		case *ast.FuncDecl, *ast.FuncLit:
			// local declarations do not belong to package level types
			return reverse(chain)
		}
	}
	return reverse(chain)
}

func reverse(in []Container) []Container {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}

// Equal reports whether a and b describe the same declaration.
func Equal(a, b *MemberData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.kind == b.kind && a.symbol == b.symbol && a.location == b.location
}
