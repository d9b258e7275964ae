package member

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"durian/internal/compilation"
	"durian/internal/source"
)

// Resolve builds the member record for a single-declarator node:
// *ast.FuncDecl, *ast.TypeSpec, or an *ast.Field / *ast.ValueSpec with one
// name. Nil arguments and other node kinds are programmer errors and panic.
func Resolve(node ast.Node, model *compilation.SemanticModel) (*MemberData, error) {
	checkArgs(node, model)
	switch n := node.(type) {
	case *ast.FuncDecl:
		return resolveFunc(n, model)
	case *ast.TypeSpec:
		return resolveType(n, model)
	case *ast.Field, *ast.ValueSpec:
		if declarators(n) > 1 {
			panic(fmt.Sprintf("member: %T declares %d names, use ResolveFields", n, declarators(n)))
		}
		ms, err := ResolveFields(n, model)
		if err != nil {
			return nil, err
		}
		return ms[0], nil
	}
	panic(fmt.Sprintf("member: unsupported node %T", node))
}

// ResolveFields builds one record per declarator of an *ast.Field or
// *ast.ValueSpec. All records share the declaration node and see each other
// through UnderlyingFields.
func ResolveFields(node ast.Node, model *compilation.SemanticModel) ([]*MemberData, error) {
	checkArgs(node, model)
	var (
		names []*ast.Ident
		field *ast.Field
		spec  *ast.ValueSpec
	)
	switch n := node.(type) {
	case *ast.Field:
		field, names = n, n.Names
		if len(names) == 0 {
			names = []*ast.Ident{embeddedIdent(n.Type)}
		}
	case *ast.ValueSpec:
		spec, names = n, n.Names
	default:
		panic(fmt.Sprintf("member: ResolveFields on %T", node))
	}

	out := make([]*MemberData, 0, len(names))
	for i, id := range names {
		obj := model.DeclaredSymbol(id)
		if obj == nil {
			return nil, noSymbol(node, id)
		}
		pos := id.Pos()
		if field != nil && len(field.Names) == 0 {
			pos = field.Pos()
		}
		m, err := newMember(node, id, obj, model, pos, node.End())
		if err != nil {
			return nil, err
		}
		switch obj := obj.(type) {
		case *types.Var:
			if ch, ok := obj.Type().Underlying().(*types.Chan); ok {
				m.kind = KindEvent
				m.event = &EventInfo{Var: obj, Chan: ch, Field: field, Index: i}
				break
			}
			m.kind = KindField
			m.field = &FieldInfo{Var: obj, Field: field, Spec: spec, Index: i, Embedded: obj.Embedded(), Type: obj.Type()}
		case *types.Const:
			m.kind = KindField
			m.field = &FieldInfo{Const: obj, Spec: spec, Index: i, Type: obj.Type()}
		default:
			return nil, &ResolutionError{Node: node, Name: id.Name, Reason: fmt.Sprintf("unexpected symbol %T", obj)}
		}
		out = append(out, m)
	}
	if len(out) > 1 {
		for _, m := range out {
			m.siblings = out
		}
	}
	return out, nil
}

func resolveFunc(fn *ast.FuncDecl, model *compilation.SemanticModel) (*MemberData, error) {
	obj, ok := model.DeclaredSymbol(fn.Name).(*types.Func)
	if !ok {
		return nil, noSymbol(fn, fn.Name)
	}
	m, err := newMember(fn, fn.Name, obj, model, fn.Pos(), fn.End())
	if err != nil {
		return nil, err
	}
	sig, _ := obj.Type().(*types.Signature)
	if sig == nil {
		return nil, &ResolutionError{Node: fn, Name: fn.Name.Name, Reason: "function without signature"}
	}
	m.kind = KindMethod
	m.method = &MethodInfo{
		Func:         obj,
		Decl:         fn,
		Signature:    sig,
		ReceiverType: compilation.ReceiverTypeName(fn),
	}
	if recv := sig.Recv(); recv != nil {
		_, m.method.PointerRecv = recv.Type().(*types.Pointer)
	}
	return m, nil
}

func resolveType(spec *ast.TypeSpec, model *compilation.SemanticModel) (*MemberData, error) {
	obj, ok := model.DeclaredSymbol(spec.Name).(*types.TypeName)
	if !ok {
		return nil, noSymbol(spec, spec.Name)
	}
	m, err := newMember(spec, spec.Name, obj, model, spec.Pos(), spec.End())
	if err != nil {
		return nil, err
	}
	if sig, ok := obj.Type().Underlying().(*types.Signature); ok && !spec.Assign.IsValid() {
		m.kind = KindDelegate
		m.delegate = &DelegateInfo{TypeName: obj, Spec: spec, Signature: sig}
		return m, nil
	}
	m.kind = KindType
	info := &TypeInfo{TypeName: obj, Spec: spec, IsAlias: spec.Assign.IsValid()}
	info.Named, _ = obj.Type().(*types.Named)
	info.Struct, _ = obj.Type().Underlying().(*types.Struct)
	m.typ = info
	return m, nil
}

func newMember(node ast.Node, id *ast.Ident, obj types.Object, model *compilation.SemanticModel, pos, end token.Pos) (*MemberData, error) {
	comp := model.Compilation()
	loc, ok := comp.PosLocation(pos, end)
	if !ok {
		return nil, &ResolutionError{Node: node, Name: id.Name, Reason: "declaration outside the compilation"}
	}
	span, _ := comp.PosSpan(pos, end)
	list, _ := comp.Directives().Lookup(node)
	return &MemberData{
		node:       node,
		ident:      id,
		symbol:     obj,
		model:      model,
		location:   loc,
		span:       span,
		directives: list,
	}, nil
}

func checkArgs(node ast.Node, model *compilation.SemanticModel) {
	if node == nil {
		panic("member: nil node")
	}
	if model == nil {
		panic("member: nil semantic model")
	}
	// Synthesized nodes have no position and fail resolution instead.
	if node.Pos().IsValid() && !model.Contains(node) {
		panic(fmt.Sprintf("member: %T at %s is outside the semantic model's file",
			node, model.Compilation().Fset.Position(node.Pos())))
	}
}

func declarators(n ast.Node) int {
	switch n := n.(type) {
	case *ast.Field:
		return max(len(n.Names), 1)
	case *ast.ValueSpec:
		return len(n.Names)
	}
	return 1
}

// embeddedIdent returns the identifier naming an embedded field's type.
func embeddedIdent(expr ast.Expr) *ast.Ident {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e
		default:
			return nil
		}
	}
}

// Locations returns the cache keys the members of node will have, one per
// declarator, without resolving any symbol.
func Locations(comp *compilation.Compilation, node ast.Node) ([]source.Location, bool) {
	var names []*ast.Ident
	switch n := node.(type) {
	case *ast.Field:
		names = n.Names
	case *ast.ValueSpec:
		names = n.Names
	}
	if len(names) == 0 {
		loc, ok := comp.Location(node)
		if !ok {
			return nil, false
		}
		return []source.Location{loc}, true
	}
	out := make([]source.Location, 0, len(names))
	for _, id := range names {
		loc, ok := comp.PosLocation(id.Pos(), node.End())
		if !ok {
			return nil, false
		}
		out = append(out, loc)
	}
	return out, true
}
