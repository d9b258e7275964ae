// Package defaultparam generates companions that supply default values.
//
//	//durian:default retries=3 timeout=(2 * time.Second)
//	func (c *Client) Do(req *Request, retries int, timeout time.Duration) error
//
// produces DoDefault(req), which calls Do with the declared defaults.
// Named func types get a bound companion type and structs get a
// constructor returning the struct with its defaulted fields set.
//
// Functions and methods are processed first, then func types, then
// structs. All three phases share one symbol cache.
package defaultparam

import (
	"go/types"
	"sort"

	"durian/internal/diag"
	"durian/internal/directive"
	"durian/internal/filter"
	"durian/internal/generator"
	"durian/internal/member"
	"durian/internal/pass"
	"durian/internal/symcache"
)

const (
	Name      = "defaultparam"
	Directive = "default"
)

type Config struct {
	// Suffix is appended to wrapper names and prefixed to constructors.
	Suffix string
	// Workers resolves candidates in parallel when above one.
	Workers int
}

func DefaultConfig() Config {
	return Config{Suffix: "Default", Workers: 1}
}

// TargetKind is the declaration a Target was produced for.
type TargetKind uint8

const (
	TargetFunc TargetKind = iota
	TargetDelegate
	TargetStruct
)

// Target is an accepted declaration with its checked defaults.
type Target struct {
	member *member.MemberData

	Kind TargetKind
	// Generated is the identifier emitted for the target.
	Generated string
	// Bind is the method emitted on func types.
	Bind     string
	Defaults []Default
	// Keep is the number of leading parameters the wrapper still takes.
	Keep int
}

func (t *Target) Member() *member.MemberData { return t.member }

// Default is one parameter or field default.
type Default struct {
	Name  string
	Index int
	Value Value
}

// Generator is the defaultparam source generator.
type Generator struct {
	*generator.SourceGenerator[*Target]
	cache *symcache.Cache[*Target]
	group *filter.Group[*Target]
}

func New(cfg Config) *Generator {
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultConfig().Suffix
	}
	cache := symcache.New[*Target](0)
	opts := []filter.Option{filter.WithDirective(Directive), filter.WithWorkers(cfg.Workers), filter.WithStamped()}
	conv := converter{suffix: cfg.Suffix}

	methods := filter.NewCached(Name+".methods", filter.ByDirective(Directive, filter.NodeFunc), cache, conv.function,
		append(opts, filter.WithValidators(filter.RejectReservedMarker(), filter.RequireContainerPartial()))...)
	delegates := filter.NewCached(Name+".delegates", filter.ByDirective(Directive, filter.NodeDelegateType), cache, conv.delegate,
		append(opts, filter.WithValidators(filter.RejectReservedMarker(), filter.RequirePartial()))...)
	structs := filter.NewCached(Name+".types", filter.ByDirective(Directive, filter.NodeType), cache, conv.structType,
		append(opts, filter.WithValidators(filter.RejectReservedMarker(), filter.RequirePartial()))...)

	group := filter.NewGroup[*Target](Name, methods, delegates, structs)
	return &Generator{
		SourceGenerator: generator.New[*Target](Name, group, template{Fixed: generator.Fixed(generator.FileName(Name))}),
		cache:           cache,
		group:           group,
	}
}

// Cache is shared by every phase.
func (g *Generator) Cache() *symcache.Cache[*Target] { return g.cache }

func (g *Generator) Group() *filter.Group[*Target] { return g.group }

type converter struct {
	suffix string
}

func (c converter) function(pc *pass.Context, m *member.MemberData, report diag.Reporter) (*Target, bool) {
	mi, _ := m.Method()
	sig := mi.Signature
	if sig.TypeParams().Len() > 0 || sig.RecvTypeParams().Len() > 0 {
		report.Report(diag.New(Generic, m.Span(), m.QualifiedName()))
		return nil, false
	}
	t := &Target{member: m, Kind: TargetFunc, Generated: m.Name() + c.suffix}
	if !c.params(m, sig, t, report) {
		return nil, false
	}

	comp := m.Compilation()
	var taken types.Object
	if recv := sig.Recv(); recv != nil {
		taken, _, _ = types.LookupFieldOrMethod(recv.Type(), true, comp.Types, t.Generated)
	} else {
		taken = comp.Types.Scope().Lookup(t.Generated)
	}
	if comp.UserDeclared(taken) {
		report.Report(diag.New(NameCollision, m.Span(), t.Generated, m.QualifiedName()))
		return nil, false
	}
	return t, true
}

func (c converter) delegate(pc *pass.Context, m *member.MemberData, report diag.Reporter) (*Target, bool) {
	di, ok := m.Delegate()
	if !ok {
		return nil, false
	}
	if di.Spec.TypeParams != nil && di.Spec.TypeParams.NumFields() > 0 {
		report.Report(diag.New(Generic, m.Span(), m.QualifiedName()))
		return nil, false
	}
	t := &Target{member: m, Kind: TargetDelegate, Generated: m.Name() + c.suffix, Bind: c.suffix}
	if !c.params(m, di.Signature, t, report) {
		return nil, false
	}

	comp := m.Compilation()
	if comp.UserDeclared(comp.Types.Scope().Lookup(t.Generated)) {
		report.Report(diag.New(NameCollision, m.Span(), t.Generated, m.QualifiedName()))
		return nil, false
	}
	bound, _, _ := types.LookupFieldOrMethod(di.TypeName.Type(), true, comp.Types, t.Bind)
	if comp.UserDeclared(bound) {
		report.Report(diag.New(NameCollision, m.Span(), m.Name()+"."+t.Bind, m.QualifiedName()))
		return nil, false
	}
	return t, true
}

func (c converter) structType(pc *pass.Context, m *member.MemberData, report diag.Reporter) (*Target, bool) {
	ti, ok := m.Type()
	if !ok {
		return nil, false
	}
	if ti.IsGeneric() {
		report.Report(diag.New(Generic, m.Span(), m.QualifiedName()))
		return nil, false
	}
	if ti.Struct == nil {
		report.Report(diag.New(NotStruct, m.Span(), m.QualifiedName()))
		return nil, false
	}
	d, args, ok := c.args(m, report)
	if !ok {
		return nil, false
	}

	comp := m.Compilation()
	t := &Target{member: m, Kind: TargetStruct, Generated: c.suffix + m.Name()}
	valid := true
	for _, a := range args {
		idx := fieldIndex(ti.Struct, a.Key)
		if idx < 0 {
			report.Report(diag.New(UnknownField, m.Span(), m.QualifiedName(), a.Key))
			valid = false
			continue
		}
		v, err := checkValue(comp, d.Pos, a.Value, ti.Struct.Field(idx).Type())
		if err != nil {
			report.Report(diag.New(InvalidValue, m.Span(), a.Key, a.Value, m.QualifiedName(), err.Error()))
			valid = false
			continue
		}
		t.Defaults = append(t.Defaults, Default{Name: a.Key, Index: idx, Value: v})
	}
	if !valid {
		return nil, false
	}
	sort.Slice(t.Defaults, func(i, j int) bool { return t.Defaults[i].Index < t.Defaults[j].Index })

	if comp.UserDeclared(comp.Types.Scope().Lookup(t.Generated)) {
		report.Report(diag.New(NameCollision, m.Span(), t.Generated, m.QualifiedName()))
		return nil, false
	}
	return t, true
}

// args returns the key=value arguments of the directive. Bare flags are
// ignored.
func (c converter) args(m *member.MemberData, report diag.Reporter) (directive.Directive, []directive.Arg, bool) {
	d, _ := m.Directives().Find(Directive)
	var out []directive.Arg
	for _, a := range d.Args {
		if !a.Flag {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		report.Report(diag.New(NoDefaults, m.Span(), m.QualifiedName()))
		return d, nil, false
	}
	return d, out, true
}

// params checks the parameter defaults of sig and fills t.
func (c converter) params(m *member.MemberData, sig *types.Signature, t *Target, report diag.Reporter) bool {
	d, args, ok := c.args(m, report)
	if !ok {
		return false
	}
	comp := m.Compilation()
	params := sig.Params()
	valid := true
	for _, a := range args {
		idx := paramIndex(params, a.Key)
		if idx < 0 {
			report.Report(diag.New(UnknownParam, m.Span(), m.QualifiedName(), a.Key))
			valid = false
			continue
		}
		if sig.Variadic() && idx == params.Len()-1 {
			report.Report(diag.New(Variadic, m.Span(), a.Key, m.QualifiedName()))
			valid = false
			continue
		}
		v, err := checkValue(comp, d.Pos, a.Value, params.At(idx).Type())
		if err != nil {
			report.Report(diag.New(InvalidValue, m.Span(), a.Key, a.Value, m.QualifiedName(), err.Error()))
			valid = false
			continue
		}
		t.Defaults = append(t.Defaults, Default{Name: a.Key, Index: idx, Value: v})
	}
	if !valid {
		return false
	}
	sort.Slice(t.Defaults, func(i, j int) bool { return t.Defaults[i].Index < t.Defaults[j].Index })

	first := t.Defaults[0].Index
	next := first
	for _, def := range t.Defaults {
		if def.Index != next {
			report.Report(diag.New(NotTrailing, m.Span(), t.Defaults[0].Name, m.QualifiedName(), params.At(next).Name()))
			return false
		}
		next++
	}
	if next != params.Len() {
		report.Report(diag.New(NotTrailing, m.Span(), t.Defaults[0].Name, m.QualifiedName(), params.At(next).Name()))
		return false
	}
	t.Keep = first
	return true
}

func paramIndex(params *types.Tuple, name string) int {
	if name == "_" {
		return -1
	}
	for i := range params.Len() {
		if params.At(i).Name() == name {
			return i
		}
	}
	return -1
}

func fieldIndex(st *types.Struct, name string) int {
	for i := range st.NumFields() {
		if f := st.Field(i); f.Name() == name && !f.Embedded() {
			return i
		}
	}
	return -1
}
