package trace

import (
	"fmt"
	"sync"
	"time"
)

// StartHeartbeat emits a heartbeat event every interval until the returned
// function is called. A run whose heartbeats continue without span ends is
// stuck. Nothing is started for a disabled tracer or a non-positive
// interval.
func StartHeartbeat(t Tracer, interval time.Duration) (stop func()) {
	if t == nil || !t.Enabled() || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		started := time.Now()
		for n := 1; ; n++ {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				t.Emit(&Event{
					Time:   now,
					Seq:    seq.Add(1),
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d after %s", n, now.Sub(started).Round(time.Millisecond)),
				})
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
