// Package observable provides a multicast value holder that replays its latest
// value to every new subscriber, the building block for state container output.
package observable

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Value holds the latest published T.
//
// Set swaps the value atomically, so Get never observes a partially written
// value even when Set runs on another goroutine. Subscribers are called
// synchronously, in subscription order, on the goroutine calling Set; they must
// not call Set on the same Value.
type Value[T any] struct {
	cur atomic.Pointer[T]

	// emitMu orders Set against Subscribe so a new subscriber sees the
	// replayed value before any later update.
	emitMu sync.Mutex
	subs   callbackList[T]
}

// New returns a Value whose initial replay value is initial.
func New[T any](initial T) *Value[T] {
	v := &Value[T]{}
	v.cur.Store(&initial)
	return v
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	return *v.cur.Load()
}

// Set publishes x to all current subscribers.
func (v *Value[T]) Set(x T) {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.cur.Store(&x)
	for _, s := range v.subs.get() {
		s.fn(x)
	}
}

// Subscribe registers fn and immediately calls it with the latest value.
func (v *Value[T]) Subscribe(fn func(T)) *Subscription {
	s := &subscriber[T]{fn: fn}

	v.emitMu.Lock()
	v.subs.add(s)
	fn(v.Get())
	v.emitMu.Unlock()

	return NewSubscription(func() { v.subs.remove(s) })
}

// Watch returns a channel carrying the latest value and every later update.
// A slow reader only sees the most recent value. The channel is closed after
// ctx is done.
func (v *Value[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	var (
		mu     sync.Mutex
		closed bool
	)
	sub := v.Subscribe(func(x T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- x:
		default:
			// conflate: drop the unread value
			select {
			case <-ch:
			default:
			}
			ch <- x
		}
	})
	go func() {
		<-ctx.Done()
		sub.Dispose()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

// Subscribers returns the number of live subscriptions.
func (v *Value[T]) Subscribers() int {
	return len(v.subs.get())
}

type subscriber[T any] struct {
	fn func(T)
}

// callbackList makes a copy of the list on update, so readers can iterate a
// snapshot without holding the lock.
type callbackList[T any] struct {
	mu        sync.Mutex
	callbacks []*subscriber[T]
}

func (l *callbackList[T]) get() []*subscriber[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.callbacks
}

func (l *callbackList[T]) add(s *subscriber[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if slices.Contains(l.callbacks, s) {
		return
	}
	next := slices.Clone(l.callbacks)
	l.callbacks = append(next, s)
}

func (l *callbackList[T]) remove(s *subscriber[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := slices.Index(l.callbacks, s)
	if i < 0 {
		return
	}
	next := slices.Clone(l.callbacks)
	l.callbacks = slices.Delete(next, i, i+1)
}
