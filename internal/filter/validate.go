package filter

import (
	"durian/internal/diag"
	"durian/internal/directive"
	"durian/internal/member"
	"durian/internal/pass"
)

// OutcomeKind is the verdict of a validator.
type OutcomeKind uint8

const (
	Valid OutcomeKind = iota
	InvalidMissingModifier
	InvalidContainerNotPartial
	InvalidOther
)

// Outcome is what a validator found. The filter turns invalid outcomes into
// diagnostics.
type Outcome struct {
	Kind       OutcomeKind
	Modifier   string
	Container  member.Container
	Descriptor *diag.Descriptor
	Args       []any
}

func (o Outcome) IsValid() bool { return o.Kind == Valid }

func Accept() Outcome { return Outcome{} }

// MissingModifier rejects a member that lacks the modifier directive.
func MissingModifier(modifier string) Outcome {
	return Outcome{Kind: InvalidMissingModifier, Modifier: modifier}
}

// ContainerNotPartial rejects a member whose container is not partial.
func ContainerNotPartial(c member.Container) Outcome {
	return Outcome{Kind: InvalidContainerNotPartial, Container: c}
}

// Reject rejects a member with a feature specific descriptor.
func Reject(desc *diag.Descriptor, args ...any) Outcome {
	return Outcome{Kind: InvalidOther, Descriptor: desc, Args: args}
}

// Validator checks one resolved member.
type Validator interface {
	Validate(pc *pass.Context, m *member.MemberData) Outcome
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(pc *pass.Context, m *member.MemberData) Outcome

func (f ValidatorFunc) Validate(pc *pass.Context, m *member.MemberData) Outcome { return f(pc, m) }

// RequirePartial rejects members that do not carry //durian:partial.
func RequirePartial() Validator {
	return ValidatorFunc(func(_ *pass.Context, m *member.MemberData) Outcome {
		if m.IsPartial() {
			return Accept()
		}
		return MissingModifier(directive.Partial)
	})
}

// RequireContainerPartial rejects members with a non-partial containing
// type, reporting the outermost offender.
func RequireContainerPartial() Validator {
	return ValidatorFunc(func(_ *pass.Context, m *member.MemberData) Outcome {
		for _, c := range m.ContainingTypes(false) {
			if !c.IsPartial() {
				return ContainerNotPartial(c)
			}
		}
		return Accept()
	})
}

// RequireReceiver rejects functions without receiver. name is the
// directive that needs the receiver.
func RequireReceiver(name string) Validator {
	return ValidatorFunc(func(_ *pass.Context, m *member.MemberData) Outcome {
		mi, ok := m.Method()
		if !ok || !mi.IsStatic() {
			return Accept()
		}
		return Reject(diag.StaticMethod, name, m.Name())
	})
}

// RejectReservedMarker rejects user declarations carrying //durian:generated.
func RejectReservedMarker() Validator {
	return ValidatorFunc(func(_ *pass.Context, m *member.MemberData) Outcome {
		if m.Directives().Has(directive.Generated) {
			return Reject(diag.ReservedMarker, m.QualifiedName())
		}
		return Accept()
	})
}

// diagnose turns an invalid outcome into a diagnostic at m.
func diagnose(o Outcome, m *member.MemberData, directiveName string) diag.Diagnostic {
	switch o.Kind {
	case InvalidMissingModifier:
		if o.Modifier == directive.Partial {
			return diag.New(diag.TargetNotPartial, m.Span(), m.QualifiedName())
		}
		return diag.New(diag.MissingModifier, m.Span(), directiveName, m.QualifiedName(), o.Modifier)
	case InvalidContainerNotPartial:
		d := diag.New(diag.ContainerNotPartial, m.Span(), o.Container.Name, m.QualifiedName())
		if sp, ok := m.Compilation().Span(o.Container.Node); ok {
			d = d.WithNote(sp, o.Container.Name+" is declared here")
		}
		return d
	default:
		return diag.New(o.Descriptor, m.Span(), o.Args...)
	}
}
