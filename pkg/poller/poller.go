// Package poller runs a check on a fixed interval until it reports done, the
// attempt ceiling is reached, or the task is cancelled.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout means the attempt ceiling was reached without a result.
	ErrTimeout = errors.New("polling timed out")
	// ErrCancelled means Cancel was called or the parent context ended.
	ErrCancelled = errors.New("polling cancelled")
)

// Config controls the polling cadence.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	// Immediate runs the first attempt without waiting one interval.
	Immediate bool
}

// Func is one polling attempt. Returning done=true stops polling with result;
// a non-nil error stops polling with that error.
type Func[T any] func(ctx context.Context, attempt int) (result T, done bool, err error)

// Handle controls a running task.
type Handle[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	result   T
	err      error
	attempts int
}

// Start launches the task in its own goroutine.
func Start[T any](parent context.Context, cfg Config, fn Func[T]) *Handle[T] {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Handle[T]{cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, cfg, fn)
	return h
}

func (h *Handle[T]) run(ctx context.Context, cfg Config, fn Func[T]) {
	defer close(h.done)
	defer h.cancel()

	first := cfg.Interval
	if cfg.Immediate {
		first = 0
	}
	timer := time.NewTimer(first)
	defer timer.Stop()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			h.finish(ErrCancelled)
			return
		case <-timer.C:
		}

		result, done, err := fn(ctx, attempt)
		h.mu.Lock()
		h.attempts = attempt
		h.mu.Unlock()

		if ctx.Err() != nil {
			h.finish(ErrCancelled)
			return
		}
		if err != nil {
			h.finish(err)
			return
		}
		if done {
			h.mu.Lock()
			h.result = result
			h.mu.Unlock()
			h.finish(nil)
			return
		}
		timer.Reset(cfg.Interval)
	}
	h.finish(ErrTimeout)
}

func (h *Handle[T]) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Cancel stops the task. It is safe to call more than once and after the
// task finished; a finished task keeps its outcome.
func (h *Handle[T]) Cancel() {
	h.cancel()
}

// Done is closed when the task has stopped.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task stops or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome so far. Before the task stops err is nil and
// result is the zero value.
func (h *Handle[T]) Result() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Attempts returns how many attempts have run.
func (h *Handle[T]) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Group tracks running handles so they can all be cancelled on shutdown.
type Group struct {
	mu      sync.Mutex
	cancels map[string]func()
}

func NewGroup() *Group {
	return &Group{cancels: make(map[string]func())}
}

// Add registers a cancel func under key, cancelling any previous one.
func (g *Group) Add(key string, cancel func()) {
	g.mu.Lock()
	prev := g.cancels[key]
	g.cancels[key] = cancel
	g.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Cancel stops and forgets the task under key. It reports whether one existed.
func (g *Group) Cancel(key string) bool {
	g.mu.Lock()
	cancel, ok := g.cancels[key]
	delete(g.cancels, key)
	g.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Remove forgets key without cancelling.
func (g *Group) Remove(key string) {
	g.mu.Lock()
	delete(g.cancels, key)
	g.mu.Unlock()
}

// Len returns the number of tracked tasks.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancels)
}

// CancelAll stops every tracked task.
func (g *Group) CancelAll() {
	g.mu.Lock()
	cancels := g.cancels
	g.cancels = make(map[string]func())
	g.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
