package defaultparam

import (
	"fmt"
	"go/types"
	"strings"

	"github.com/jhump/gopoet"

	"durian/internal/directive"
	"durian/internal/generator"
	"durian/internal/pass"
)

type template struct {
	generator.Fixed
}

func (template) Emit(_ *pass.Context, f *generator.File, t *Target) error {
	switch t.Kind {
	case TargetFunc:
		return emitFunc(f, t)
	case TargetDelegate:
		return emitDelegate(f, t)
	case TargetStruct:
		return emitStruct(f, t)
	}
	return fmt.Errorf("unknown target kind %d", t.Kind)
}

func emitFunc(f *generator.File, t *Target) error {
	m := t.Member()
	mi, ok := m.Method()
	if !ok {
		return fmt.Errorf("%s is not a function", m.QualifiedName())
	}
	sig := mi.Signature
	comment := fmt.Sprintf("%s calls %s with %s.\n\n%s", t.Generated, m.Name(), describe(t), marker())

	recv := sig.Recv()
	if recv == nil {
		fn := &gopoet.FuncSpec{Comment: comment, Name: t.Generated}
		params, call := wrap(f, sig, t, "")
		fn.Signature = params
		addResults(f, &fn.Signature, sig)
		f.Func(fn, fmt.Sprintf("%s%s(%s)", returnKeyword(sig), m.Name(), call))
		return nil
	}

	recvName := recv.Name()
	if recvName == "" || recvName == "_" {
		recvName = "recv"
	}
	base, ptr := recv.Type(), false
	if p, ok := base.(*types.Pointer); ok {
		base, ptr = p.Elem(), true
	}
	method := &gopoet.MethodSpec{
		FuncSpec:          gopoet.FuncSpec{Comment: comment, Name: t.Generated},
		ReceiverName:      recvName,
		ReceiverIsPointer: ptr,
	}
	params, call := wrap(f, sig, t, recvName)
	method.Signature = params
	addResults(f, &method.Signature, sig)
	f.Method(f.Owner(f.Type(base), base.Underlying()), method,
		fmt.Sprintf("%s%s.%s(%s)", returnKeyword(sig), recvName, m.Name(), call))
	return nil
}

func emitDelegate(f *generator.File, t *Target) error {
	m := t.Member()
	di, ok := m.Delegate()
	if !ok {
		return fmt.Errorf("%s is not a func type", m.QualifiedName())
	}
	sig := di.Signature
	const recv = "fn"
	params, call := wrap(f, sig, t, recv)
	addResults(f, &params, sig)

	fnType := gopoet.NewTypeSpec(t.Generated, gopoet.FuncTypeFromSig(&params))
	fnType.Comment = fmt.Sprintf("%s is %s with %s.\n\n%s", t.Generated, m.Name(), describe(t), marker())
	f.TypeDecl(fnType)

	lit := generator.FuncType(&params)
	bind := &gopoet.MethodSpec{
		FuncSpec: gopoet.FuncSpec{
			Comment: fmt.Sprintf("%s binds the defaults of %s.\n\n%s", t.Bind, m.Name(), marker()),
			Name:    t.Bind,
		},
		ReceiverName: recv,
	}
	bind.AddResult("", gopoet.NamedType(&gopoet.Symbol{Name: t.Generated}))
	f.Method(f.Owner(m.Name(), sig), bind,
		"return "+lit+" {",
		fmt.Sprintf("\t%s%s(%s)", returnKeyword(sig), recv, call),
		"}")
	return nil
}

func emitStruct(f *generator.File, t *Target) error {
	m := t.Member()
	ti, ok := m.Type()
	if !ok {
		return fmt.Errorf("%s is not a type", m.QualifiedName())
	}
	typ := f.TypeName(ti.TypeName.Type())
	ctor := &gopoet.FuncSpec{
		Comment: fmt.Sprintf("%s returns a %s with %s.\n\n%s", t.Generated, m.Name(), describe(t), marker()),
		Name:    t.Generated,
	}
	ctor.AddResult("", typ)
	body := []string{fmt.Sprintf("return %s{", typ)}
	for _, d := range t.Defaults {
		body = append(body, fmt.Sprintf("\t%s: %s,", d.Name, d.Value.Render(f)))
	}
	f.Func(ctor, append(body, "}")...)
	return nil
}

// wrap builds the kept parameter list and the call arguments, defaults
// included. Parameters named like reserved are renamed.
func wrap(f *generator.File, sig *types.Signature, t *Target, reserved string) (gopoet.Signature, string) {
	var params gopoet.Signature
	ps := sig.Params()
	var args []string
	for i := range t.Keep {
		p := ps.At(i)
		name := p.Name()
		if name == "" || name == "_" || name == reserved {
			name = fmt.Sprintf("p%d", i)
		}
		if sig.Variadic() && i == ps.Len()-1 {
			params.AddArg(name, gopoet.SliceType(f.TypeName(p.Type().(*types.Slice).Elem())))
			params.SetVariadic(true)
			args = append(args, name+"...")
			continue
		}
		params.AddArg(name, f.TypeName(p.Type()))
		args = append(args, name)
	}
	for _, d := range t.Defaults {
		args = append(args, d.Value.Render(f))
	}
	return params, strings.Join(args, ", ")
}

func addResults(f *generator.File, dst *gopoet.Signature, sig *types.Signature) {
	rs := sig.Results()
	for i := range rs.Len() {
		dst.AddResult("", f.TypeName(rs.At(i).Type()))
	}
}

func returnKeyword(sig *types.Signature) string {
	if sig.Results().Len() == 0 {
		return ""
	}
	return "return "
}

func describe(t *Target) string {
	names := make([]string, len(t.Defaults))
	for i, d := range t.Defaults {
		names[i] = d.Name
	}
	noun := "defaults for "
	if t.Kind == TargetStruct {
		noun = "default values for "
	}
	return noun + strings.Join(names, ", ")
}

func marker() string {
	return directive.Prefix + directive.Generated
}
