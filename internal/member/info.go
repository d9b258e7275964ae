package member

import (
	"go/ast"
	"go/types"
)

// FieldInfo describes one declarator of a struct field or package value.
type FieldInfo struct {
	Var   *types.Var   // nil for constants
	Const *types.Const // set for package constants
	Field *ast.Field   // nil for package values
	Spec  *ast.ValueSpec
	// Index is the declarator position within the declaration.
	Index    int
	Embedded bool
	Type     types.Type
}

// MethodInfo describes a function declaration. Functions without receiver
// are static.
type MethodInfo struct {
	Func      *types.Func
	Decl      *ast.FuncDecl
	Signature *types.Signature
	// ReceiverType is the receiver's base type name, empty when static.
	ReceiverType string
	PointerRecv  bool
}

func (m *MethodInfo) IsStatic() bool { return m.Signature.Recv() == nil }

// TypeInfo describes a declared non-function type.
type TypeInfo struct {
	TypeName *types.TypeName
	Spec     *ast.TypeSpec
	Named    *types.Named // nil for aliases of unnamed types
	Struct   *types.Struct
	IsAlias  bool
}

// IsGeneric reports whether the type declares type parameters.
func (t *TypeInfo) IsGeneric() bool {
	return t.Spec.TypeParams != nil && t.Spec.TypeParams.NumFields() > 0
}

// EventInfo describes a channel typed field or package variable.
type EventInfo struct {
	Var   *types.Var
	Chan  *types.Chan
	Field *ast.Field // nil for package variables
	Index int
}

// DelegateInfo describes a named function type.
type DelegateInfo struct {
	TypeName  *types.TypeName
	Spec      *ast.TypeSpec
	Signature *types.Signature
}
