package filter

import (
	"context"
	"fmt"
	"go/ast"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"durian/internal/compilation"
	"durian/internal/diag"
	"durian/internal/member"
	"durian/internal/pass"
	"durian/internal/symcache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const methodsSrc = `package svc

//durian:partial
type Server struct {
	//durian:mark
	a, b int
	//durian:mark
	c string
}

//durian:mark
func (s *Server) Start() {}

//durian:mark
func Helper() {}

//durian:mark
func (s *Server) Stop() {}

//durian:mark
func (s Server) Name() string { return "" }

type plain struct {
	//durian:mark
	hidden int
}

//durian:mark
//durian:partial
type Handler func(int) error

//durian:mark
//durian:partial
type Config struct{}
`

func compile(t *testing.T, srcs map[string]string) *compilation.Compilation {
	t.Helper()
	c, err := compilation.FromSources(nil, "example.com/svc", srcs)
	require.NoError(t, err)
	require.Empty(t, c.Problems)
	return c
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newPass(ctx context.Context, c *compilation.Compilation, bag *diag.Bag) *pass.Context {
	return pass.New(ctx, c,
		pass.WithGenerator("mark"),
		pass.WithReporter(diag.BagReporter{Bag: bag}),
		pass.WithLogger(quietLogger()),
	)
}

func names[T Data](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Member().Name()
	}
	return out
}

func methodFilter(opts ...Option) *Filter {
	opts = append([]Option{WithValidators(RequireReceiver("mark"))}, opts...)
	return New("mark-methods", ByDirective("mark", NodeFunc), opts...)
}

func TestRejectionIsNonFatal(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	bag := diag.NewBag(0)
	got := slices.Collect(methodFilter().Filtrate(newPass(context.Background(), c, bag)))

	assert.Equal(t, []string{"Start", "Stop", "Name"}, names(got))
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.CoreStaticMethod, d.Code())
	assert.Equal(t, "//durian:mark requires Helper to be a method with a receiver", d.Message())
}

func TestFiltrateIsDeterministic(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	f := New("fields", ByDirective("mark", NodeField), WithValidators(RequireContainerPartial()))

	var runs [][]string
	var msgs [][]string
	for range 3 {
		bag := diag.NewBag(0)
		runs = append(runs, names(slices.Collect(f.Filtrate(newPass(context.Background(), c, bag)))))
		var m []string
		for _, d := range bag.Items() {
			m = append(m, d.Message())
		}
		msgs = append(msgs, m)
	}
	assert.Equal(t, []string{"a", "b", "c"}, runs[0])
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[0], runs[2])
	assert.Equal(t, []string{"containing type plain of plain.hidden must be marked //durian:partial"}, msgs[0])
	assert.Equal(t, msgs[0], msgs[2])
}

func TestContainerDiagnosticPointsAtContainer(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	bag := diag.NewBag(0)
	f := New("fields", ByDirective("mark", NodeField), WithValidators(RequireContainerPartial()))
	_ = slices.Collect(f.Filtrate(newPass(context.Background(), c, bag)))

	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	require.Len(t, d.Notes, 1)
	spec := c.Decl("plain")
	sp, _ := c.Span(spec)
	assert.Equal(t, sp, d.Notes[0].Span)
}

func TestMissingModifierDiagnostics(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	bag := diag.NewBag(0)
	needsExport := ValidatorFunc(func(_ *pass.Context, m *member.MemberData) Outcome {
		if m.Directives().Has("export") {
			return Accept()
		}
		return MissingModifier("export")
	})
	f := New("types", ByDirective("mark", NodeType|NodeDelegateType), WithValidators(RequirePartial(), needsExport))
	got := slices.Collect(f.Filtrate(newPass(context.Background(), c, bag)))

	assert.Empty(t, got)
	require.Equal(t, 2, bag.Len())
	assert.Equal(t, "//durian:types on Handler requires the //durian:export modifier", bag.Items()[0].Message())
	assert.Equal(t, diag.CoreMissingModifier, bag.Items()[1].Code())
}

type marked struct {
	m   *member.MemberData
	run int
}

func (d marked) Member() *member.MemberData { return d.m }

func recordStates() (func(ast.Node, NodeState), func() []NodeState) {
	var (
		mu     sync.Mutex
		states []NodeState
	)
	hook := func(_ ast.Node, s NodeState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}
	return hook, func() []NodeState {
		mu.Lock()
		defer mu.Unlock()
		return append([]NodeState(nil), states...)
	}
}

func TestCachedFilterSkipsResolutionOnHit(t *testing.T) {
	cache := symcache.New[marked](0)
	run := 1
	convert := func(_ *pass.Context, m *member.MemberData, _ diag.Reporter) (marked, bool) {
		return marked{m: m, run: run}, true
	}

	hook, states := recordStates()
	f := NewCached("methods", ByDirective("mark", NodeFunc), cache, convert,
		WithValidators(RequireReceiver("mark")), WithStateHook(hook))

	first := slices.Collect(f.Filtrate(newPass(context.Background(), compile(t, map[string]string{"svc.go": methodsSrc}), diag.NewBag(0))))
	require.Len(t, first, 3)
	assert.Equal(t, 3, cache.Len())
	assert.Contains(t, states(), StateResolving)

	run = 2
	hook2, states2 := recordStates()
	f2 := NewCached("methods", ByDirective("mark", NodeFunc), cache, convert,
		WithValidators(RequireReceiver("mark")), WithStateHook(hook2))
	bag := diag.NewBag(0)
	second := slices.Collect(f2.Filtrate(newPass(context.Background(), compile(t, map[string]string{"svc.go": methodsSrc}), bag)))

	require.Len(t, second, 3)
	for _, v := range second {
		assert.Equal(t, 1, v.run, "values come from the cache")
	}
	assert.Equal(t, names(first), names(second))
	assert.Equal(t, 1, bag.Len(), "rejected candidates are never cached")
	assert.Equal(t, 3, count(states2(), StateCacheHit))
	assert.Equal(t, 1, count(states2(), StateResolving))
}

func count(states []NodeState, s NodeState) int {
	n := 0
	for _, x := range states {
		if x == s {
			n++
		}
	}
	return n
}

func TestStampedCacheMissesAfterChange(t *testing.T) {
	cache := symcache.New[marked](0)
	convert := func(_ *pass.Context, m *member.MemberData, _ diag.Reporter) (marked, bool) {
		return marked{m: m}, true
	}
	hook, states := recordStates()
	f := NewCached("fields", ByDirective("mark", NodeField), cache, convert, WithStamped(), WithStateHook(hook))

	srcs := map[string]string{"svc.go": methodsSrc}
	_ = slices.Collect(f.Filtrate(newPass(context.Background(), compile(t, srcs), diag.NewBag(0))))
	_ = slices.Collect(f.Filtrate(newPass(context.Background(), compile(t, srcs), diag.NewBag(0))))
	hits := count(states(), StateCacheHit)
	assert.Equal(t, 3, hits, "unchanged sources hit: a,b share a node plus c and hidden")

	srcs["extra.go"] = "package svc\n\nvar Extra int\n"
	_ = slices.Collect(f.Filtrate(newPass(context.Background(), compile(t, srcs), diag.NewBag(0))))
	assert.Equal(t, hits, count(states(), StateCacheHit), "a new generation never hits")
}

func TestParallelResolutionKeepsSourceOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("package svc\n\ntype Server struct{}\n")
	for i := range 12 {
		if i%3 == 0 {
			fmt.Fprintf(&b, "\n//durian:mark\nfunc Free%d() {}\n", i)
		} else {
			fmt.Fprintf(&b, "\n//durian:mark\nfunc (s *Server) M%d() {}\n", i)
		}
	}
	c := compile(t, map[string]string{"svc.go": b.String()})

	messages := func(bag *diag.Bag) []string {
		var out []string
		for _, d := range bag.Items() {
			out = append(out, d.Message())
		}
		return out
	}

	seqBag := diag.NewBag(0)
	seq := slices.Collect(methodFilter().Filtrate(newPass(context.Background(), c, seqBag)))
	require.Equal(t, []string{
		"//durian:mark requires Free0 to be a method with a receiver",
		"//durian:mark requires Free3 to be a method with a receiver",
		"//durian:mark requires Free6 to be a method with a receiver",
		"//durian:mark requires Free9 to be a method with a receiver",
	}, messages(seqBag))

	// earlier candidates resolve slower, so workers finish out of order
	first := c.Decl("Free0").Pos()
	slow := WithStateHook(func(n ast.Node, s NodeState) {
		if s == StateResolving {
			d := 12 - int(n.Pos()-first)/40
			time.Sleep(time.Duration(max(d, 0)) * time.Millisecond)
		}
	})
	for range 3 {
		parBag := diag.NewBag(0)
		par := slices.Collect(methodFilter(WithWorkers(4), slow).Filtrate(newPass(context.Background(), c, parBag)))
		assert.Equal(t, names(seq), names(par))
		assert.Equal(t, messages(seqBag), messages(parBag))
	}
}

func TestCancellationStopsBetweenCandidates(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bag := diag.NewBag(0)
	assert.Empty(t, slices.Collect(methodFilter().Filtrate(newPass(ctx, c, bag))))
	assert.Zero(t, bag.Len())

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	helper := c.Decl("Helper")
	bag = diag.NewBag(0)
	f := methodFilter(WithStateHook(func(n ast.Node, s NodeState) {
		if n == helper && s == StateResolving {
			cancel()
		}
	}))
	got := slices.Collect(f.Filtrate(newPass(ctx, c, bag)))
	assert.Equal(t, []string{"Start"}, names(got))
	assert.Zero(t, bag.Len(), "the interrupted candidate reports nothing")
}

func TestFilterWithDiagnostics(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	outer := diag.NewBag(0)
	f := WithDiagnostics[*member.MemberData](methodFilter())

	got := slices.Collect(f.Filtrate(newPass(context.Background(), c, outer)))
	assert.Len(t, got, 3)
	assert.Equal(t, 1, f.Diagnostics().Len())
	assert.True(t, f.Diagnostics().HasCode(diag.CoreStaticMethod))
	assert.Equal(t, 1, outer.Len(), "diagnostics are still forwarded")

	pc := pass.New(context.Background(), c, pass.WithTarget(pass.TargetNone), pass.WithLogger(quietLogger()))
	_ = slices.Collect(f.Filtrate(pc))
	assert.Equal(t, 1, f.Diagnostics().Len(), "the bag is refilled on every run")
}

func TestGroupRunsPhasesInOrder(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	g := NewGroup[*member.MemberData]("mark",
		methodFilter(),
		New("delegates", ByDirective("mark", NodeDelegateType), WithValidators(RequirePartial())),
		New("types", ByDirective("mark", NodeType), WithValidators(RequirePartial())),
	)
	pc := newPass(context.Background(), c, diag.NewBag(0))

	got := g.Collect(pc)
	assert.Equal(t, []string{"Start", "Stop", "Name", "Handler", "Config"}, names(got))
	assert.Equal(t, names(got), names(g.Collect(pc)), "groups are restartable")
	assert.Equal(t, 3, g.Len())

	var first []string
	for m := range g.Filtrate(pc) {
		first = append(first, m.Name())
		if len(first) == 4 {
			break
		}
	}
	assert.Equal(t, []string{"Start", "Stop", "Name", "Handler"}, first)
}

func TestKindOf(t *testing.T) {
	c := compile(t, map[string]string{"svc.go": methodsSrc})
	assert.Equal(t, NodeDelegateType, KindOf(c.Decl("Handler")))
	assert.Equal(t, NodeType, KindOf(c.Decl("Config")))
	assert.Equal(t, NodeFunc, KindOf(c.Decl("Helper")))
	assert.Zero(t, KindOf(&ast.BlockStmt{}))
}
