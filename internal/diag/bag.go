package diag

import (
	"cmp"
	"slices"
	"sync"

	"fortio.org/safecast"
)

// Bag is a bounded, concurrency-safe diagnostic collection.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
	max   uint16
}

// NewBag returns a bag that keeps at most max diagnostics. A non-positive
// max means the default limit.
func NewBag(max int) *Bag {
	if max <= 0 {
		max = DefaultBagLimit
	}
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		limit = ^uint16(0)
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(int(limit), 64)),
		max:   limit,
	}
}

// DefaultBagLimit applies when no explicit limit is given.
const DefaultBagLimit = 1000

// Add appends d unless the bag is full. It reports whether d was kept.
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// HasErrors reports whether any diagnostic is an error.
func (b *Bag) HasErrors() bool {
	return b.any(func(d Diagnostic) bool { return d.Severity >= SevError })
}

// HasWarnings reports whether any diagnostic is a warning or worse.
func (b *Bag) HasWarnings() bool {
	return b.any(func(d Diagnostic) bool { return d.Severity >= SevWarning })
}

// HasCode reports whether a diagnostic with code c was collected.
func (b *Bag) HasCode(c Code) bool {
	return b.any(func(d Diagnostic) bool { return d.Code() == c })
}

func (b *Bag) any(pred func(Diagnostic) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if pred(b.items[i]) {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

// Filter returns the diagnostics carrying code c in collection order.
func (b *Bag) Filter(c Code) []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Diagnostic
	for _, d := range b.items {
		if d.Code() == c {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends every diagnostic from other, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	items := other.Items()
	b.mu.Lock()
	defer b.mu.Unlock()
	newTotal := len(b.items) + len(items)
	if newTotal > int(b.max) {
		if limit, err := safecast.Conv[uint16](newTotal); err == nil {
			b.max = limit
		} else {
			b.max = ^uint16(0)
			items = items[:int(b.max)-len(b.items)]
		}
	}
	b.items = append(b.items, items...)
}

// Sort orders diagnostics by file, start, end, severity (desc) and code so
// output is deterministic.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code(), y.Code()),
		)
	})
}

type bagKey struct {
	code    Code
	primary string
	msg     string
}

// Dedup drops diagnostics with the same code, primary span and message,
// keeping the first occurrence.
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[bagKey]struct{}, len(b.items))
	kept := b.items[:0]
	for _, d := range b.items {
		key := bagKey{code: d.Code(), primary: d.Primary.String(), msg: d.Message()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, d)
	}
	b.items = kept
}
