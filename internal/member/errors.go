package member

import (
	"errors"
	"fmt"
	"go/ast"
)

// ErrResolution is wrapped by every ResolutionError.
var ErrResolution = errors.New("member resolution failed")

// ResolutionError reports a declaration the semantic model has no symbol
// for, typically because the package did not type-check.
type ResolutionError struct {
	Node   ast.Node
	Name   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.Name, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }

func noSymbol(node ast.Node, id *ast.Ident) *ResolutionError {
	name := "<anonymous>"
	if id != nil {
		name = id.Name
	}
	return &ResolutionError{Node: node, Name: name, Reason: "no declared symbol"}
}
