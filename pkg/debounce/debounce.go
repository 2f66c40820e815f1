// Package debounce coalesces bursts of calls per key into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn(key) once per key after calls stop arriving for the wait.
type Debouncer struct {
	wait time.Duration
	fn   func(key string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func New(wait time.Duration, fn func(key string)) *Debouncer {
	if wait <= 0 {
		wait = 400 * time.Millisecond
	}
	return &Debouncer{wait: wait, fn: fn, timers: make(map[string]*time.Timer)}
}

// Trigger (re)starts the wait for key.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if d.timers[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		d.fn(key)
	})
	d.timers[key] = t
}

// Pending returns the number of keys waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Flush fires every pending key now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.timers))
	for k, t := range d.timers {
		t.Stop()
		keys = append(keys, k)
	}
	d.timers = make(map[string]*time.Timer)
	d.mu.Unlock()

	for _, k := range keys {
		d.fn(k)
	}
}

// Stop drops pending calls; later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
