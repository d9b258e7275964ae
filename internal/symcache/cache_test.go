package symcache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durian/internal/source"
)

func loc(path string, start, end uint32) source.Location {
	return source.Location{Path: path, Start: start, End: end}
}

func TestTryGetUnknownLocation(t *testing.T) {
	c := New[string](0)
	v, ok := c.TryGet(loc("a.go", 1, 2))
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestValueEqualLocationsHitSameEntry(t *testing.T) {
	c := New[int](4)
	c.Set(loc("p/a.go", 10, 20), 1)

	// a fresh Location built from another pass compares equal
	v, ok := c.TryGet(source.Location{Path: "p/a.go", Start: 10, End: 20})
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set(loc("p/a.go", 10, 20), 2)
	v, _ = c.TryGet(loc("p/a.go", 10, 20))
	assert.Equal(t, 2, v, "last writer wins")
	assert.Equal(t, 1, c.Len())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	c := New[int](0)
	c.Remove(loc("x.go", 0, 1))
	c.Set(loc("x.go", 0, 1), 3)
	c.Remove(loc("x.go", 0, 1))
	_, ok := c.TryGet(loc("x.go", 0, 1))
	assert.False(t, ok)
}

func TestStampedEntries(t *testing.T) {
	c := New[string](0)
	g1 := source.HashString("one")
	g2 := source.HashString("two")
	c.SetStamped(loc("a.go", 0, 5), "v", g1)

	_, ok := c.TryGetFresh(loc("a.go", 0, 5), g2)
	assert.False(t, ok, "stale generation must miss")
	v, ok := c.TryGetFresh(loc("a.go", 0, 5), g1)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// plain lookups ignore the stamp
	_, ok = c.TryGet(loc("a.go", 0, 5))
	assert.True(t, ok)

	c.Set(loc("b.go", 0, 1), "unstamped")
	assert.Equal(t, 1, c.Prune(g1))
	assert.Equal(t, []source.Location{loc("a.go", 0, 5)}, c.Locations())
}

func TestUnstampedEntriesAreNeverFresh(t *testing.T) {
	c := New[string](0)
	c.Set(loc("a.go", 0, 5), "plain")

	_, ok := c.TryGetFresh(loc("a.go", 0, 5), source.Digest{})
	assert.False(t, ok)

	c.SetStamped(loc("a.go", 0, 5), "zero", source.Digest{})
	v, ok := c.TryGetFresh(loc("a.go", 0, 5), source.Digest{})
	require.True(t, ok)
	assert.Equal(t, "zero", v)

	c.Set(loc("a.go", 0, 5), "plain again")
	_, ok = c.TryGetFresh(loc("a.go", 0, 5), source.Digest{})
	assert.False(t, ok, "Set clears the stamp")
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](0)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := loc(fmt.Sprintf("f%d.go", i%4), 0, 1)
			c.Set(l, i)
			c.TryGet(l)
			if i%3 == 0 {
				c.Remove(l)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
	c.Clear()
	assert.Zero(t, c.Len())
}
