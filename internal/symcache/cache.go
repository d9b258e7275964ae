// Package symcache stores values produced for declarations across generator
// passes, keyed by source location.
//
// A location is the normalized file path plus the byte span of the
// declaration, so replaying identical code in a later pass hits the same
// entry. Entries are not invalidated automatically: a caller that cannot
// guarantee the compilation is unchanged stores values with SetStamped and
// reads them back with TryGetFresh.
package symcache

import (
	"slices"
	"sync"

	"durian/internal/source"
)

type entry[T any] struct {
	value   T
	gen     source.Digest
	stamped bool
}

func (e entry[T]) fresh(gen source.Digest) bool { return e.stamped && e.gen == gen }

// Cache maps source locations to values of T. The zero value is not usable;
// call New.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[source.Location]entry[T]
}

// New creates a cache with the given capacity hint.
func New[T any](capHint int) *Cache[T] {
	return &Cache[T]{entries: make(map[source.Location]entry[T], capHint)}
}

// TryGet returns the value stored for loc regardless of its generation.
func (c *Cache[T]) TryGet(loc source.Location) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[loc]
	c.mu.RUnlock()
	return e.value, ok
}

// TryGetFresh returns the value stored for loc only when it was stored with
// SetStamped under generation gen. Entries written by Set never match.
func (c *Cache[T]) TryGetFresh(loc source.Location, gen source.Digest) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[loc]
	c.mu.RUnlock()
	if !ok || !e.fresh(gen) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores v for loc. The last writer wins.
func (c *Cache[T]) Set(loc source.Location, v T) {
	c.mu.Lock()
	c.entries[loc] = entry[T]{value: v}
	c.mu.Unlock()
}

// SetStamped stores v for loc and records the generation it belongs to.
func (c *Cache[T]) SetStamped(loc source.Location, v T, gen source.Digest) {
	c.mu.Lock()
	c.entries[loc] = entry[T]{value: v, gen: gen, stamped: true}
	c.mu.Unlock()
}

// Remove deletes the entry for loc; absent locations are ignored.
func (c *Cache[T]) Remove(loc source.Location) {
	c.mu.Lock()
	delete(c.entries, loc)
	c.mu.Unlock()
}

// Prune drops every entry not stamped with gen, unstamped ones included, and
// returns the number of removed entries.
func (c *Cache[T]) Prune(gen source.Digest) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for loc, e := range c.entries {
		if !e.fresh(gen) {
			delete(c.entries, loc)
			n++
		}
	}
	return n
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Locations returns all cached locations in path/offset order.
func (c *Cache[T]) Locations() []source.Location {
	c.mu.RLock()
	out := make([]source.Location, 0, len(c.entries))
	for loc := range c.entries {
		out = append(out, loc)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b source.Location) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return out
}
