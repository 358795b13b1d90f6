package escuela

import (
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period a search input must hold before it fires.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid input into a single delayed callback. Every Input
// supersedes the pending one; only the last value of a burst is delivered.
// An empty (or blank) value is delivered immediately as "".
type Debouncer struct {
	quiet time.Duration
	fn    func(string)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending *string
	stopped bool
}

// NewDebouncer returns a Debouncer calling fn after quiet of inactivity.
// A non-positive quiet uses DefaultDebounce.
func NewDebouncer(quiet time.Duration, fn func(string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &Debouncer{quiet: quiet, fn: fn}
}

// Input records a new value and restarts the quiet period.
func (d *Debouncer) Input(v string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.gen++
	d.stopTimerLocked()
	if strings.TrimSpace(v) == "" {
		d.pending = nil
		d.mu.Unlock()
		d.fn("")
		return
	}
	gen := d.gen
	d.pending = &v
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Flush delivers the pending value now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped || d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.gen++
	d.stopTimerLocked()
	v := *d.pending
	d.pending = nil
	d.mu.Unlock()
	d.fn(v)
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels any pending callback. Later Input calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	d.stopTimerLocked()
}

// fire runs on the timer goroutine. A timer that lost the race against a newer
// Input sees a different generation and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	v := *d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
