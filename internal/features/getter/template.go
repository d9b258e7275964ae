package getter

import (
	"fmt"
	"go/types"

	"github.com/jhump/gopoet"

	"durian/internal/directive"
	"durian/internal/generator"
	"durian/internal/member"
	"durian/internal/pass"
)

type template struct {
	generator.Fixed
}

func (template) Emit(pc *pass.Context, f *generator.File, m *member.MemberData) error {
	spec, ok := ownerSpec(m)
	if !ok {
		return fmt.Errorf("%s has no named owner", m.QualifiedName())
	}
	var underlying types.Type
	if obj := pc.Compilation().Types.Scope().Lookup(spec.Name.Name); obj != nil {
		underlying = obj.Type().Underlying()
	}
	owner := f.Owner(receiverType(spec), underlying)

	name, _ := getterName(m)
	var (
		result types.Type
		doc    string
	)
	if ei, ok := m.Event(); ok {
		result = ei.Chan
		if ei.Chan.Dir() == types.SendRecv {
			result = types.NewChan(types.RecvOnly, ei.Chan.Elem())
		}
		doc = fmt.Sprintf("%s returns the receive side of %s.", name, m.Name())
	} else if fi, ok := m.Field(); ok {
		result = fi.Type
		doc = fmt.Sprintf("%s returns the %s field.", name, m.Name())
	} else {
		return fmt.Errorf("%s is not a field", m.QualifiedName())
	}

	recv := receiverName(spec.Name.Name)
	getter := &gopoet.MethodSpec{
		FuncSpec: gopoet.FuncSpec{
			Comment: doc + "\n\n" + directive.Prefix + directive.Generated,
			Name:    name,
		},
		ReceiverName:      recv,
		ReceiverIsPointer: true,
	}
	getter.AddResult("", f.TypeName(result))
	f.Method(owner, getter, fmt.Sprintf("return %s.%s", recv, m.Name()))
	return nil
}
