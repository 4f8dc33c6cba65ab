// Package watcher turns vault file changes into debounced rebuilds.
package watcher

import (
	"sync"
	"time"
)

// MinDelay is the smallest accepted debounce delay.
const MinDelay = 300 * time.Millisecond

// Debouncer runs fn once the triggers have been quiet for the delay.
// At most one run is pending; every Trigger pushes it back.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a debouncer for fn. Delays below MinDelay are raised to it.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay < MinDelay {
		delay = MinDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Delay returns the effective delay.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Trigger schedules fn, replacing any pending run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels the pending run. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
