package filter

import (
	"go/ast"
)

// Options are the settings shared by every filter flavour.
type Options struct {
	// Directive names the directive the filter serves, used in messages.
	// It defaults to the filter name.
	Directive  string
	Validators []Validator
	// Workers > 1 resolves candidates in parallel. Results and diagnostics
	// are still delivered in source order.
	Workers int
	// Stamped makes cached filters store and require the compilation
	// generation, so stale entries are ignored.
	Stamped bool
	// StateHook observes candidate state changes. It must be safe for
	// concurrent use when Workers > 1.
	StateHook func(node ast.Node, state NodeState)
}

type Option func(*Options)

func WithDirective(name string) Option {
	return func(o *Options) { o.Directive = name }
}

func WithValidators(v ...Validator) Option {
	return func(o *Options) { o.Validators = append(o.Validators, v...) }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func WithStamped() Option {
	return func(o *Options) { o.Stamped = true }
}

func WithStateHook(fn func(node ast.Node, state NodeState)) Option {
	return func(o *Options) { o.StateHook = fn }
}

func buildOptions(name string, opts []Option) Options {
	o := Options{Directive: name}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
