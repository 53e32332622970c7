// Package owner provides the single hand-off point between background work
// and the context that owns the trace and region registries.
package owner

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStopped is returned when the owner loop is no longer running
var ErrStopped = errors.New("owner loop stopped")

// Executor runs fn on the owner context and waits for it to finish
type Executor interface {
	Exec(ctx context.Context, fn func()) error
}

// Immediate runs functions on the calling goroutine. It suits callers that
// are already the owner, such as single-threaded tools and tests.
type Immediate struct{}

// Exec runs fn unless ctx is already done
func (Immediate) Exec(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

type task struct {
	fn   func()
	done chan error
}

// Loop serializes functions onto one goroutine, the way a UI thread does.
// Exec must not be called from a function already running on the loop.
type Loop struct {
	tasks chan task

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewLoop creates a loop with the given queue depth
func NewLoop(queue int) *Loop {
	return &Loop{tasks: make(chan task, queue), stopped: make(chan struct{})}
}

// Run processes queued functions until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("owner loop already running")
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-l.tasks:
			t.done <- run(t.fn)
		}
	}
}

func run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("owner task panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Exec queues fn and waits until it has run. A cancelled ctx abandons the
// wait; fn may still run if it was already dequeued.
func (l *Loop) Exec(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
}
