package member

import (
	"errors"
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durian/internal/compilation"
	"durian/internal/source"
)

const src = `package shapes

//durian:partial
type Test struct {
	//durian:getter
	field1, field2 int
	Changed chan int
}

type Outer struct {
	Inner struct {
		//durian:partial
		Deep struct {
			X int
		}
	}
}

//durian:partial
type Op func(int) int

type Box[T any] struct{ v T }

func (b *Box[T]) Get() T { return b.v }

func Free(n int) int { return n }

var Events chan string
`

func build(t *testing.T) *compilation.Compilation {
	t.Helper()
	c, err := compilation.FromSources(nil, "example.com/app/shapes", map[string]string{"shapes.go": src})
	require.NoError(t, err)
	require.Empty(t, c.Problems)
	return c
}

func structField(t *testing.T, c *compilation.Compilation, typeName string, index int) *ast.Field {
	t.Helper()
	spec := c.Decl(typeName).(*ast.TypeSpec)
	return spec.Type.(*ast.StructType).Fields.List[index]
}

func modelFor(c *compilation.Compilation, n ast.Node) *compilation.SemanticModel {
	return c.Model(c.FileOf(n.Pos()))
}

func TestMultiDeclaratorFieldYieldsOneMemberPerName(t *testing.T) {
	c := build(t)
	field := structField(t, c, "Test", 0)

	ms, err := ResolveFields(field, modelFor(c, field))
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "field1", ms[0].Name())
	assert.Equal(t, "field2", ms[1].Name())

	for _, m := range ms {
		assert.Same(t, field, m.Node())
		assert.Equal(t, KindField, m.Kind())
		assert.True(t, m.Directives().Has("getter"))
		siblings := m.UnderlyingFields()
		require.Len(t, siblings, 2)
		assert.Equal(t, "field1", siblings[0].Name())
		assert.Equal(t, "field2", siblings[1].Name())
	}
	assert.NotEqual(t, ms[0].Location(), ms[1].Location())

	fi, ok := ms[1].Field()
	require.True(t, ok)
	assert.Equal(t, 1, fi.Index)
	_, ok = ms[1].Method()
	assert.False(t, ok)

	assert.Panics(t, func() { _, _ = Resolve(field, modelFor(c, field)) })
}

func TestChannelFieldIsEvent(t *testing.T) {
	c := build(t)
	field := structField(t, c, "Test", 1)
	m, err := Resolve(field, modelFor(c, field))
	require.NoError(t, err)
	assert.Equal(t, KindEvent, m.Kind())
	ev, ok := m.Event()
	require.True(t, ok)
	assert.Same(t, field, ev.Field)
	assert.Len(t, m.UnderlyingFields(), 1)

	spec := c.Decl("Events").(*ast.ValueSpec)
	pkgEvent, err := Resolve(spec, modelFor(c, spec))
	require.NoError(t, err)
	assert.Equal(t, KindEvent, pkgEvent.Kind())
}

func TestContainingTypesParentFirst(t *testing.T) {
	c := build(t)
	deep := structField(t, c, "Outer", 0).Type.(*ast.StructType).Fields.List[0]
	x := deep.Type.(*ast.StructType).Fields.List[0]

	m, err := Resolve(x, modelFor(c, x))
	require.NoError(t, err)
	chain := m.ContainingTypes(false)
	require.Len(t, chain, 3)
	assert.Equal(t, []string{"Outer", "Inner", "Deep"}, []string{chain[0].Name, chain[1].Name, chain[2].Name})
	assert.False(t, chain[0].IsPartial())
	assert.True(t, chain[2].IsPartial())
	assert.Len(t, m.ContainingTypes(true), 3, "fields never include themselves")
	assert.Equal(t, "Outer.Inner.Deep.X", m.QualifiedName())

	outer := c.Decl("Outer").(*ast.TypeSpec)
	om, err := Resolve(outer, modelFor(c, outer))
	require.NoError(t, err)
	assert.Empty(t, om.ContainingTypes(false))
	self := om.ContainingTypes(true)
	require.Len(t, self, 1)
	assert.Equal(t, "Outer", self[0].Name)
}

func TestMethodsAndDelegates(t *testing.T) {
	c := build(t)

	get := c.Decl("Box.Get")
	m, err := Resolve(get, modelFor(c, get))
	require.NoError(t, err)
	mi, ok := m.Method()
	require.True(t, ok)
	assert.False(t, mi.IsStatic())
	assert.True(t, mi.PointerRecv)
	assert.Equal(t, "Box", mi.ReceiverType)
	containers := m.ContainingTypes(true)
	require.Len(t, containers, 1)
	assert.Equal(t, "Box", containers[0].Name)

	free := c.Decl("Free")
	fm, err := Resolve(free, modelFor(c, free))
	require.NoError(t, err)
	fi, _ := fm.Method()
	assert.True(t, fi.IsStatic())
	assert.Empty(t, fm.ContainingTypes(false))

	op := c.Decl("Op")
	dm, err := Resolve(op, modelFor(c, op))
	require.NoError(t, err)
	assert.Equal(t, KindDelegate, dm.Kind())
	assert.True(t, dm.IsPartial())
	di, ok := dm.Delegate()
	require.True(t, ok)
	assert.Equal(t, 1, di.Signature.Params().Len())

	box := c.Decl("Box")
	bm, err := Resolve(box, modelFor(c, box))
	require.NoError(t, err)
	ti, ok := bm.Type()
	require.True(t, ok)
	assert.True(t, ti.IsGeneric())
	assert.NotNil(t, ti.Struct)
}

func TestResolutionIsIdempotent(t *testing.T) {
	c := build(t)
	spec := c.Decl("Test")
	a, err := Resolve(spec, modelFor(c, spec))
	require.NoError(t, err)
	b, err := Resolve(spec, modelFor(c, spec))
	require.NoError(t, err)
	assert.True(t, Equal(a, b))

	other := build(t)
	spec2 := other.Decl("Test")
	c2, err := Resolve(spec2, modelFor(other, spec2))
	require.NoError(t, err)
	assert.Equal(t, a.Location(), c2.Location(), "locations are stable across compilations")
	assert.False(t, Equal(a, c2), "symbols of different compilations differ")
	assert.True(t, Equal(nil, nil))
}

func TestNamespaces(t *testing.T) {
	c := build(t)
	spec := c.Decl("Op")
	m, err := Resolve(spec, modelFor(c, spec))
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "app", "shapes"}, m.ContainingNamespaces())
}

func TestResolutionFailure(t *testing.T) {
	c := build(t)
	model := c.Model(c.Syntax[0])
	ghost := &ast.FuncDecl{Name: ast.NewIdent("ghost"), Type: &ast.FuncType{}}

	_, err := Resolve(ghost, model)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution))
	var rerr *ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "ghost", rerr.Name)

	assert.Panics(t, func() { _, _ = Resolve(nil, model) })
	assert.Panics(t, func() { _, _ = Resolve(ghost, nil) })
	assert.Panics(t, func() { _, _ = Resolve(&ast.BlockStmt{}, model) })
}

func TestModelOfAnotherFilePanics(t *testing.T) {
	c, err := compilation.FromSources(nil, "example.com/app/shapes", map[string]string{
		"a.go": "package shapes\n\ntype A struct{ X int }\n",
		"b.go": "package shapes\n\ntype B struct{ Y int }\n",
	})
	require.NoError(t, err)
	a, b := c.Decl("A"), c.Decl("B")
	require.NotEqual(t, c.FileOf(a.Pos()), c.FileOf(b.Pos()))

	assert.Panics(t, func() { _, _ = Resolve(a, modelFor(c, b)) })
	assert.Panics(t, func() { _, _ = ResolveFields(structField(t, c, "A", 0), modelFor(c, b)) })
	assert.NotPanics(t, func() { _, _ = Resolve(a, modelFor(c, a)) })
}

func TestLocationsMatchResolvedMembers(t *testing.T) {
	c := build(t)
	field := structField(t, c, "Test", 0)
	locs, ok := Locations(c, field)
	require.True(t, ok)
	ms, err := ResolveFields(field, modelFor(c, field))
	require.NoError(t, err)
	require.Len(t, locs, len(ms))
	for i := range ms {
		assert.Equal(t, ms[i].Location(), locs[i])
	}

	fn := c.Decl("Free")
	locs, ok = Locations(c, fn)
	require.True(t, ok)
	m, err := Resolve(fn, modelFor(c, fn))
	require.NoError(t, err)
	assert.Equal(t, []source.Location{m.Location()}, locs)
}
