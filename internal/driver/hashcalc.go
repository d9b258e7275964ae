package driver

import (
	"fmt"
	"slices"

	"durian/internal/features"
	"durian/internal/source"
)

// configDigest fingerprints everything besides the sources that changes
// generated output.
func configDigest(tool string, generators []string, cfg features.Config) source.Digest {
	names := slices.Clone(generators)
	slices.Sort(names)
	deps := make([]source.Digest, 0, len(names)+1)
	for _, n := range names {
		deps = append(deps, source.HashString(n))
	}
	deps = append(deps, source.HashString(fmt.Sprintf("%+v", cfg)))
	return source.Combine(source.HashString(tool), deps...)
}

// cacheKey combines the package generation with the config digest.
func cacheKey(generation, config source.Digest) source.Digest {
	return source.Combine(generation, config)
}
