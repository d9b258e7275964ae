package trace

import (
	"io"
	"sync"
)

// Recorder keeps the last events in memory. The CLI uses it for
// LevelError: events are only written out when the run fails.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	level  Level
}

// NewRecorder keeps up to capacity events (4096 when capacity <= 0) of the
// scopes level emits.
func NewRecorder(capacity int, level Level) *Recorder {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Recorder{events: make([]Event, capacity), level: level}
}

func (r *Recorder) Emit(ev *Event) {
	if !r.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = *ev
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Events returns the kept events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.events[:r.next]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Dump writes the kept events to w.
func (r *Recorder) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

// Replay emits the kept events into t.
func (r *Recorder) Replay(t Tracer) {
	for _, ev := range r.Events() {
		t.Emit(&ev)
	}
}

func (r *Recorder) Flush() error  { return nil }
func (r *Recorder) Close() error  { return nil }
func (r *Recorder) Level() Level  { return r.level }
func (r *Recorder) Enabled() bool { return r.level > LevelOff }
