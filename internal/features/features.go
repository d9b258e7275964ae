// Package features lists the generators shipped with durian.
package features

import (
	"errors"
	"fmt"
	"slices"

	"durian/internal/features/defaultparam"
	"durian/internal/features/getter"
	"durian/internal/generator"
)

var ErrUnknownGenerator = errors.New("unknown generator")

// Config carries the per-feature settings.
type Config struct {
	DefaultParam defaultparam.Config
	Getter       getter.Config
}

func DefaultConfig() Config {
	return Config{
		DefaultParam: defaultparam.DefaultConfig(),
		Getter:       getter.Config{Workers: 1},
	}
}

type factory func(Config) generator.Generator

var registry = map[string]factory{
	defaultparam.Name: func(c Config) generator.Generator { return defaultparam.New(c.DefaultParam) },
	getter.Name:       func(c Config) generator.Generator { return getter.New(c.Getter) },
}

// Names returns every known generator name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Generators builds the named generators in the given order. No names
// selects all of them.
func Generators(cfg Config, names ...string) ([]generator.Generator, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]generator.Generator, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		f, ok := registry[n]
		if !ok {
			return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownGenerator, n, Names())
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, f(cfg))
	}
	return out, nil
}
