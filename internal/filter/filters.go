package filter

import (
	"iter"

	"durian/internal/diag"
	"durian/internal/member"
	"durian/internal/pass"
	"durian/internal/symcache"
)

// Filter yields accepted members without caching.
type Filter struct {
	core core[*member.MemberData]
}

// New creates a filter over the candidates of collect.
func New(name string, collect Collector, opts ...Option) *Filter {
	if collect == nil {
		panic("filter: nil collector")
	}
	return &Filter{core: core[*member.MemberData]{
		name:    name,
		collect: collect,
		convert: identity,
		opts:    buildOptions(name, opts),
	}}
}

func identity(_ *pass.Context, m *member.MemberData, _ diag.Reporter) (*member.MemberData, bool) {
	return m, true
}

func (f *Filter) Name() string { return f.core.name }

func (f *Filter) Filtrate(pc *pass.Context) iter.Seq[*member.MemberData] {
	return f.core.filtrate(pc)
}

// CachedFilter consults a symbol cache before resolving a candidate and
// stores every accepted value. Several cached filters of one generator
// usually share the cache.
type CachedFilter[T Data] struct {
	core core[T]
}

// NewCached creates a cached filter. convert derives the cached value from
// an accepted member.
func NewCached[T Data](name string, collect Collector, cache *symcache.Cache[T], convert Convert[T], opts ...Option) *CachedFilter[T] {
	switch {
	case collect == nil:
		panic("filter: nil collector")
	case cache == nil:
		panic("filter: nil cache")
	case convert == nil:
		panic("filter: nil convert")
	}
	return &CachedFilter[T]{core: core[T]{
		name:    name,
		collect: collect,
		convert: convert,
		cache:   cache,
		opts:    buildOptions(name, opts),
	}}
}

func (f *CachedFilter[T]) Name() string { return f.core.name }

func (f *CachedFilter[T]) Cache() *symcache.Cache[T] { return f.core.cache }

func (f *CachedFilter[T]) Filtrate(pc *pass.Context) iter.Seq[T] {
	return f.core.filtrate(pc)
}

// FilterWithDiagnostics wraps a filter and keeps the diagnostics of its
// latest run queryable, in addition to forwarding them.
type FilterWithDiagnostics[T any] struct {
	inner SyntaxFilter[T]
	bag   *diag.Bag
}

// WithDiagnostics wraps f.
func WithDiagnostics[T any](f SyntaxFilter[T]) *FilterWithDiagnostics[T] {
	return &FilterWithDiagnostics[T]{inner: f, bag: diag.NewBag(0)}
}

func (f *FilterWithDiagnostics[T]) Name() string { return f.inner.Name() }

// Inner returns the wrapped filter.
func (f *FilterWithDiagnostics[T]) Inner() SyntaxFilter[T] { return f.inner }

// Diagnostics returns what the most recent Filtrate reported.
func (f *FilterWithDiagnostics[T]) Diagnostics() *diag.Bag { return f.bag }

func (f *FilterWithDiagnostics[T]) Filtrate(pc *pass.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		f.bag = diag.NewBag(0)
		tapped := pc.Tap(diag.BagReporter{Bag: f.bag})
		for v := range f.inner.Filtrate(tapped) {
			if !yield(v) {
				return
			}
		}
	}
}
