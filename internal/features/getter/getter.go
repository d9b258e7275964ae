// Package getter generates accessor methods for struct fields marked with
// //durian:getter. Channel fields get an accessor returning the receive
// side only. An explicit name=Custom argument overrides the exported field
// name.
package getter

import (
	"go/ast"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"durian/internal/filter"
	"durian/internal/generator"
	"durian/internal/member"
	"durian/internal/pass"
)

const (
	Name      = "getter"
	Directive = "getter"
)

type Config struct {
	Workers int
}

// New returns the getter generator.
func New(cfg Config) *generator.SourceGenerator[*member.MemberData] {
	f := filter.New(Name, filter.ByDirective(Directive, filter.NodeField),
		filter.WithDirective(Directive),
		filter.WithWorkers(cfg.Workers),
		filter.WithValidators(
			filter.RejectReservedMarker(),
			filter.ValidatorFunc(namedContainer),
			filter.ValidatorFunc(fieldShape),
			filter.ValidatorFunc(freeName),
		))
	return generator.New[*member.MemberData](Name, f, template{Fixed: generator.Fixed(generator.FileName(Name))})
}

func namedContainer(pc *pass.Context, m *member.MemberData) filter.Outcome {
	if _, ok := ownerSpec(m); !ok {
		return filter.Reject(AnonymousStruct, m.QualifiedName())
	}
	return filter.RequireContainerPartial().Validate(pc, m)
}

func fieldShape(_ *pass.Context, m *member.MemberData) filter.Outcome {
	switch {
	case m.Name() == "_":
		return filter.Reject(BlankField, owner(m))
	case embedded(m):
		return filter.Reject(EmbeddedField, m.QualifiedName())
	}
	return filter.Accept()
}

func freeName(_ *pass.Context, m *member.MemberData) filter.Outcome {
	spec, ok := ownerSpec(m)
	if !ok || m.Name() == "_" || embedded(m) {
		return filter.Accept()
	}
	name, custom := getterName(m)
	if !custom && ast.IsExported(m.Name()) {
		return filter.Reject(ExportedField, m.QualifiedName(), name)
	}
	if custom && len(m.UnderlyingFields()) > 1 {
		return filter.Reject(NameCollision, name, m.QualifiedName())
	}
	comp := m.Compilation()
	tn, ok := comp.Info.Defs[spec.Name].(*types.TypeName)
	if !ok {
		return filter.Accept()
	}
	obj, _, _ := types.LookupFieldOrMethod(tn.Type(), true, comp.Types, name)
	if comp.UserDeclared(obj) {
		return filter.Reject(NameCollision, name, m.QualifiedName())
	}
	return filter.Accept()
}

// ownerSpec returns the named type directly declaring the field.
func ownerSpec(m *member.MemberData) (*ast.TypeSpec, bool) {
	cs := m.ContainingTypes(false)
	if len(cs) == 0 {
		return nil, false
	}
	spec, ok := cs[len(cs)-1].Node.(*ast.TypeSpec)
	return spec, ok
}

func owner(m *member.MemberData) string {
	if spec, ok := ownerSpec(m); ok {
		return spec.Name.Name
	}
	return m.QualifiedName()
}

func embedded(m *member.MemberData) bool {
	if fi, ok := m.Field(); ok {
		return fi.Embedded
	}
	if ei, ok := m.Event(); ok {
		return ei.Var.Embedded()
	}
	return false
}

// getterName is the accessor name and whether it was given explicitly.
func getterName(m *member.MemberData) (string, bool) {
	if d, ok := m.Directives().Find(Directive); ok {
		if a, ok := d.Get("name"); ok && !a.Flag {
			return a.Unquoted(), true
		}
	}
	return generator.Exported(m.Name()), false
}

func receiverName(typeName string) string {
	r, _ := utf8.DecodeRuneInString(typeName)
	return string(unicode.ToLower(r))
}

// receiverType spells the owner type with its type parameters.
func receiverType(spec *ast.TypeSpec) string {
	if spec.TypeParams == nil || spec.TypeParams.NumFields() == 0 {
		return spec.Name.Name
	}
	var params []string
	for _, f := range spec.TypeParams.List {
		for _, n := range f.Names {
			params = append(params, n.Name)
		}
	}
	return spec.Name.Name + "[" + strings.Join(params, ", ") + "]"
}
