// Package task provides a small future abstraction: a Task runs work in the
// background and resolves exactly once with a Result, a tagged
// success-or-error outcome. Tasks compose with Then and cancel through the
// context handed to the work function.
package task

import (
	"context"
	"sync"
)

// Result is the outcome of a Task. Err is nil on success.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful Result carrying v.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail returns a failed Result carrying err.
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether the result is a success.
func (r Result[T]) OK() bool { return r.Err == nil }

// Get unpacks the result into Go's usual (value, error) pair.
func (r Result[T]) Get() (T, error) { return r.Value, r.Err }

// Task is a handle on work that resolves once.
type Task[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	mu        sync.Mutex
	res       Result[T]
	callbacks []func(Result[T])
}

func newTask[T any](cancel context.CancelFunc) *Task[T] {
	return &Task[T]{done: make(chan struct{}), cancel: cancel}
}

// Go runs fn on a new goroutine and returns its Task.
// The context passed to fn is cancelled by Task.Cancel or when ctx is done.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := newTask[T](cancel)
	go func() {
		v, err := fn(ctx)
		t.complete(Result[T]{Value: v, Err: err})
	}()
	return t
}

// Resolved returns a Task that has already completed with r.
func Resolved[T any](r Result[T]) *Task[T] {
	t := newTask[T](nil)
	t.complete(r)
	return t
}

// NewPromise returns an unresolved Task and the function that resolves it.
// Only the first call to resolve has an effect.
func NewPromise[T any]() (*Task[T], func(Result[T])) {
	t := newTask[T](nil)
	return t, t.complete
}

// Then chains fn after t. If t fails, fn is skipped and the returned Task
// fails with the same error. Cancelling the returned Task cancels fn's context
// but leaves t running.
func Then[T, U any](ctx context.Context, t *Task[T], fn func(context.Context, T) (U, error)) *Task[U] {
	ctx, cancel := context.WithCancel(ctx)
	next := newTask[U](cancel)
	t.OnComplete(func(r Result[T]) {
		if r.Err != nil {
			next.complete(Fail[U](r.Err))
			return
		}
		if err := ctx.Err(); err != nil {
			next.complete(Fail[U](err))
			return
		}
		go func() {
			v, err := fn(ctx, r.Value)
			next.complete(Result[U]{Value: v, Err: err})
		}()
	})
	return next
}

func (t *Task[T]) complete(r Result[T]) {
	t.once.Do(func() {
		t.mu.Lock()
		t.res = r
		cbs := t.callbacks
		t.callbacks = nil
		close(t.done)
		t.mu.Unlock()

		if t.cancel != nil {
			t.cancel()
		}
		for _, cb := range cbs {
			cb(r)
		}
	})
}

// OnComplete registers fn to run with the result. If the task already
// completed, fn runs immediately on the caller's goroutine; otherwise it runs
// on the goroutine that completes the task.
func (t *Task[T]) OnComplete(fn func(Result[T])) {
	t.mu.Lock()
	select {
	case <-t.done:
		r := t.res
		t.mu.Unlock()
		fn(r)
		return
	default:
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// Done is closed when the task completes.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Result returns the outcome and true once the task has completed.
func (t *Task[T]) Result() (Result[T], bool) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.res, true
	default:
		return Result[T]{}, false
	}
}

// Await blocks until the task completes or ctx is done.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.res.Value, t.res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel cancels the context given to the task's work function.
// Work that ignores its context still runs to completion.
func (t *Task[T]) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}
