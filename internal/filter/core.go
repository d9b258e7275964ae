package filter

import (
	"go/ast"
	"iter"
	"strconv"

	"golang.org/x/sync/errgroup"

	"durian/internal/compilation"
	"durian/internal/diag"
	"durian/internal/member"
	"durian/internal/pass"
	"durian/internal/source"
	"durian/internal/symcache"
	"durian/internal/trace"
)

// Convert derives the value a filter yields from an accepted member. It may
// reject the member by returning false after reporting to report.
type Convert[T any] func(pc *pass.Context, m *member.MemberData, report diag.Reporter) (T, bool)

type core[T any] struct {
	name    string
	collect Collector
	convert Convert[T]
	cache   *symcache.Cache[T]
	opts    Options
}

type outcome[T any] struct {
	values  []T
	diags   []diag.Diagnostic
	aborted bool
}

func (c *core[T]) filtrate(pc *pass.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		comp := pc.Compilation()
		if comp == nil || pc.Err() != nil {
			return
		}
		cands := c.collect(comp)
		pc, span := pc.StartSpan(trace.ScopeGenerator, "filter:"+c.name)
		yielded := 0
		defer func() { span.WithExtra("yielded", strconv.Itoa(yielded)).End("") }()

		deliver := func(res outcome[T]) bool {
			if res.aborted || pc.Err() != nil {
				return false
			}
			for _, d := range res.diags {
				pc.Report(d)
			}
			for _, v := range res.values {
				yielded++
				if !yield(v) {
					return false
				}
			}
			return true
		}

		if c.opts.Workers > 1 && len(cands) > 1 {
			for _, res := range c.evaluateAll(pc, cands) {
				if !deliver(res) {
					return
				}
			}
			return
		}
		for _, cand := range cands {
			if pc.Err() != nil {
				return
			}
			if !deliver(c.evaluate(pc, cand)) {
				return
			}
		}
	}
}

func (c *core[T]) evaluateAll(pc *pass.Context, cands []Candidate) []outcome[T] {
	results := make([]outcome[T], len(cands))
	g, ctx := errgroup.WithContext(pc.Context())
	g.SetLimit(c.opts.Workers)
	for i := range cands {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].aborted = true
				return nil
			}
			results[i] = c.evaluate(pc, cands[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}

func (c *core[T]) evaluate(pc *pass.Context, cand Candidate) (res outcome[T]) {
	comp := pc.Compilation()
	c.setState(pc, cand.Node, StateCandidate)

	locs, ok := member.Locations(comp, cand.Node)
	if !ok {
		c.setState(pc, cand.Node, StateRejected)
		return res
	}
	if c.cache != nil {
		if vals, hit := c.lookup(locs, comp.Generation); hit {
			c.setState(pc, cand.Node, StateCacheHit)
			res.values = vals
			return res
		}
	}

	c.setState(pc, cand.Node, StateResolving)
	members, err := resolve(cand.Node, comp.Model(cand.File))
	if err != nil {
		pc.Logger().WithError(err).Debug("candidate skipped")
		c.setState(pc, cand.Node, StateRejected)
		return res
	}
	pc.LogNode(c.name, cand.Node)

	collect := diag.ReporterFunc(func(d diag.Diagnostic) { res.diags = append(res.diags, d) })
	accepted := false
	for _, m := range members {
		if pc.Err() != nil {
			return outcome[T]{aborted: true}
		}
		valid := true
		for _, v := range c.opts.Validators {
			if o := v.Validate(pc, m); !o.IsValid() {
				collect.Report(diagnose(o, m, c.opts.Directive))
				valid = false
			}
		}
		if !valid {
			continue
		}
		val, ok := c.convert(pc, m, collect)
		if !ok {
			continue
		}
		if c.cache != nil {
			c.store(m.Location(), val, comp.Generation)
		}
		res.values = append(res.values, val)
		accepted = true
	}
	if pc.Err() != nil {
		return outcome[T]{aborted: true}
	}
	if accepted {
		c.setState(pc, cand.Node, StateAccepted)
	} else {
		c.setState(pc, cand.Node, StateRejected)
	}
	return res
}

func resolve(node ast.Node, model *compilation.SemanticModel) ([]*member.MemberData, error) {
	switch node.(type) {
	case *ast.Field, *ast.ValueSpec:
		return member.ResolveFields(node, model)
	}
	m, err := member.Resolve(node, model)
	if err != nil {
		return nil, err
	}
	return []*member.MemberData{m}, nil
}

// lookup succeeds only when every declarator of the node is cached.
func (c *core[T]) lookup(locs []source.Location, gen source.Digest) ([]T, bool) {
	vals := make([]T, 0, len(locs))
	for _, loc := range locs {
		var (
			v  T
			ok bool
		)
		if c.opts.Stamped {
			v, ok = c.cache.TryGetFresh(loc, gen)
		} else {
			v, ok = c.cache.TryGet(loc)
		}
		if !ok {
			return nil, false
		}
		vals = append(vals, v)
	}
	return vals, true
}

func (c *core[T]) store(loc source.Location, v T, gen source.Digest) {
	if c.opts.Stamped {
		c.cache.SetStamped(loc, v, gen)
		return
	}
	c.cache.Set(loc, v)
}

func (c *core[T]) setState(pc *pass.Context, node ast.Node, s NodeState) {
	if c.opts.StateHook != nil {
		c.opts.StateHook(node, s)
	}
	trace.Point(pc.Tracer(), trace.ScopeMember, c.name, s.String())
}
