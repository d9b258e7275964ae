package compilation

import (
	"go/ast"
	"go/types"
)

// SemanticModel answers symbol questions about one file of a compilation.
type SemanticModel struct {
	comp *Compilation
	file *ast.File
}

func (m *SemanticModel) Compilation() *Compilation { return m.comp }

func (m *SemanticModel) File() *ast.File { return m.file }

// DeclaredSymbol returns the object declared by id, or nil.
func (m *SemanticModel) DeclaredSymbol(id *ast.Ident) types.Object {
	if id == nil || m.comp.Info == nil {
		return nil
	}
	return m.comp.Info.Defs[id]
}

// TypeOf returns the type of e, or nil when it was not recorded.
func (m *SemanticModel) TypeOf(e ast.Expr) types.Type {
	if m.comp.Info == nil {
		return nil
	}
	return m.comp.Info.TypeOf(e)
}

// Contains reports whether n lies inside this model's file.
func (m *SemanticModel) Contains(n ast.Node) bool {
	return n != nil && m.file.FileStart <= n.Pos() && n.End() <= m.file.FileEnd
}
