package omnibox

import (
	"sync"
	"time"
)

// DefaultDebounce is the settling window for input events.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer runs only the most recent of a burst of calls, once the burst
// has been quiet for the configured window. Each run receives a sequence
// number; Latest reports whether it is still the newest one.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a Debouncer. A non-positive wait uses DefaultDebounce.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &Debouncer{wait: wait}
}

// Trigger schedules fn, cancelling any run that has not started yet.
func (d *Debouncer) Trigger(fn func(seq uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { fn(seq) })
}

// Latest reports whether seq belongs to the most recent Trigger.
func (d *Debouncer) Latest(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == seq
}

// Stop cancels a pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
