package mainloop

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Call once the loop has stopped accepting work.
var ErrStopped = errors.New("main loop stopped")

// Loop is the single UI thread. Every window operation and native callback
// runs on it, one task at a time, in posting order.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// New creates an idle loop. Tasks accumulate until Run or RunPending drains them.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post appends fn to the task queue. It never runs fn inline, even when
// called from the loop itself, so fn observes the state after the current
// task has finished.
func (l *Loop) Post(fn func()) {
	l.post(fn)
}

func (l *Loop) post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

const (
	callQueued int32 = iota
	callStarted
	callAbandoned
)

// Call runs fn on the loop and waits for its result. If ctx ends while fn is
// still queued, fn never runs and ctx's error is returned. Once fn has
// started, Call waits for it to finish, so a caller never sees an error for
// work that took effect.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	var state atomic.Int32
	done := make(chan error, 1)
	ok := l.post(func() {
		if !state.CompareAndSwap(callQueued, callStarted) {
			return
		}
		done <- fn()
	})
	if !ok {
		return ErrStopped
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if state.CompareAndSwap(callQueued, callAbandoned) {
			return ctx.Err()
		}
		return <-done
	}
}

// RunPending drains the queue on the calling goroutine, including tasks
// posted by the tasks it runs. It returns the number of tasks executed.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Run locks the calling goroutine to its OS thread and executes tasks until
// ctx is cancelled. Pending tasks are dropped on exit.
func (l *Loop) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
