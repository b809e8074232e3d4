// Package service contains the state containers. A container mediates every
// read and write of one aggregate: it holds the latest snapshot of the
// collection in an observable, forwards mutations to a repo.Gateway, and after
// each successful write replaces the snapshot with a fresh fetch.
//
// Containers never surface gateway failures to subscribers. A failed call is
// logged, the returned task fails, and the published snapshot is unchanged.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/pkordes/tripsync/internal/observable"
	"github.com/pkordes/tripsync/internal/repo"
	"github.com/pkordes/tripsync/internal/task"
)

// ErrClosed is returned by tasks whose result arrived after the container
// was closed. The gateway call itself still ran to completion.
var ErrClosed = errors.New("container closed")

// Container is the observable read model over one gateway.
type Container[T any] struct {
	name string
	gw   repo.Gateway[T]
	log  *slog.Logger
	loop *loop

	owner        atomic.Pointer[string]
	requireOwner bool
	items   *observable.Value[[]T]
	focused *observable.Value[T]

	ready *task.Task[[]T]
}

type containerOptions struct {
	owner string
	// initOnly skips the initial fetch; the container publishes whatever its
	// owner sets instead of the collection.
	initOnly bool
	// requireOwner publishes an empty list while no owner is set rather than
	// reading the whole collection.
	requireOwner bool
}

func newContainer[T any](name string, gw repo.Gateway[T], log *slog.Logger, opts containerOptions) *Container[T] {
	c := &Container[T]{
		name:    name,
		gw:      gw,
		log:     log.With("container", name),
		loop:    newLoop(),
		items:   observable.New([]T{}),
		focused: observable.New(*new(T)),

		requireOwner: opts.requireOwner,
	}
	c.owner.Store(&opts.owner)

	c.ready = task.Go(context.Background(), func(ctx context.Context) ([]T, error) {
		if err := c.gw.Init(ctx); err != nil {
			c.log.Error("init failed", "error", err)
			return nil, err
		}
		if opts.initOnly {
			return nil, nil
		}
		return c.fetch(ctx)
	})
	return c
}

// NewContainer returns a container over gw and starts its one-time Init and
// initial fetch. owner, when non-empty, restricts the collection to documents
// owned by that user.
func NewContainer[T any](name string, gw repo.Gateway[T], owner string, log *slog.Logger) *Container[T] {
	return newContainer(name, gw, log, containerOptions{owner: owner})
}

// Ready resolves once Init and the initial fetch have been applied.
func (c *Container[T]) Ready() *task.Task[[]T] { return c.ready }

// Items replays the latest snapshot of the collection to each subscriber.
func (c *Container[T]) Items() *observable.Value[[]T] { return c.items }

// Focused holds the selected item, the zero value until Select is called.
func (c *Container[T]) Focused() *observable.Value[T] { return c.focused }

// Owner returns the user the collection is currently filtered by.
func (c *Container[T]) Owner() string { return *c.owner.Load() }

// Select publishes item as the focused value. The list is not touched.
func (c *Container[T]) Select(item T) *task.Task[T] {
	t, resolve := task.NewPromise[T]()
	if !c.loop.post(func() {
		c.focused.Set(item)
		resolve(task.Ok(item))
	}) {
		resolve(task.Fail[T](ErrClosed))
	}
	return t
}

// Refresh re-fetches the collection and publishes it.
func (c *Container[T]) Refresh(ctx context.Context) *task.Task[[]T] {
	return task.Go(context.WithoutCancel(ctx), c.fetch)
}

// SetOwner changes the owner filter and refreshes.
func (c *Container[T]) SetOwner(ctx context.Context, owner string) *task.Task[[]T] {
	c.owner.Store(&owner)
	return c.Refresh(ctx)
}

// Close stops publishing. Results of calls already issued are dropped.
func (c *Container[T]) Close() {
	c.loop.close()
}

// fetch reads the whole collection and applies it on the loop. The returned
// list is what was published.
func (c *Container[T]) fetch(ctx context.Context) ([]T, error) {
	owner := c.Owner()
	if c.requireOwner && owner == "" {
		docs := []T{}
		if err := c.apply(func() { c.items.Set(docs) }); err != nil {
			return nil, err
		}
		return docs, nil
	}
	docs, err := c.gw.GetAll(ctx, owner)
	if err != nil {
		c.log.Error("fetch failed", "error", err)
		return nil, err
	}
	if err := c.apply(func() { c.items.Set(docs) }); err != nil {
		return nil, err
	}
	return docs, nil
}

// apply runs fn on the loop and waits for it.
func (c *Container[T]) apply(fn func()) error {
	applied := make(chan struct{})
	if !c.loop.post(func() {
		fn()
		close(applied)
	}) {
		return ErrClosed
	}
	select {
	case <-applied:
		return nil
	case <-c.loop.done:
		// closed with fn still queued
		select {
		case <-applied:
			return nil
		default:
			return ErrClosed
		}
	}
}

// mutate runs write against the gateway and, if it succeeds, refreshes the
// list. The task resolves after the refreshed list is published. A failed
// write is logged and leaves the list as it was. A failed refresh after a
// successful write is logged only; the write's result is still returned.
func mutate[T, R any](ctx context.Context, c *Container[T], op string, write func(context.Context) (R, error)) *task.Task[R] {
	ctx = context.WithoutCancel(ctx)
	return task.Go(ctx, func(ctx context.Context) (R, error) {
		r, err := write(ctx)
		if err != nil {
			c.log.ErrorContext(ctx, op+" failed", "error", err)
			var zero R
			return zero, err
		}
		if _, err := c.fetch(ctx); err != nil && errors.Is(err, ErrClosed) {
			return r, err
		}
		return r, nil
	})
}
