// Package debounce implements search-as-you-type: the query is echoed
// immediately, and a search runs only once the query has been stable for a
// quiet period.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/pkordes/tripsync/internal/observable"
)

// DefaultQuietPeriod is used when New is given a non-positive period.
const DefaultQuietPeriod = 200 * time.Millisecond

// State is the coordinator's timer state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// SearchFunc runs one search.
type SearchFunc[R any] func(ctx context.Context, query string) (R, error)

// Coordinator debounces queries into searches. At most one quiet timer is
// live at any time.
//
// A search is never cancelled once issued, and its result is delivered even
// when a newer query has been set since. A slow response to an older query
// can therefore replace the results of a newer one.
type Coordinator[R any] struct {
	quiet   time.Duration
	search  SearchFunc[R]
	deliver func(R)
	log     *slog.Logger

	// setMu orders SetQuery calls so the echoed query and the pending one
	// agree. Query subscribers run under it but never under mu.
	setMu sync.Mutex
	query *observable.Value[string]

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	gen     uint64
	closed  bool
}

// New returns an idle coordinator. deliver receives every successful result.
func New[R any](quiet time.Duration, search SearchFunc[R], deliver func(R), log *slog.Logger) *Coordinator[R] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Coordinator[R]{
		quiet:   quiet,
		search:  search,
		deliver: deliver,
		log:     log,
		query:   observable.New(""),
	}
}

// Query publishes every value passed to SetQuery, before any debouncing.
func (c *Coordinator[R]) Query() *observable.Value[string] { return c.query }

// State reports whether a quiet timer is running.
func (c *Coordinator[R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		return Pending
	}
	return Idle
}

// SetQuery publishes q, cancels any running quiet timer and starts a new one.
// After Close it only publishes.
func (c *Coordinator[R]) SetQuery(q string) {
	q = norm.NFC.String(q)
	c.setMu.Lock()
	defer c.setMu.Unlock()
	c.query.Set(q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.pending = q
	c.timer = time.AfterFunc(c.quiet, func() { c.fire(gen) })
}

// Close cancels the running timer, if any. A search already issued still
// completes and delivers.
func (c *Coordinator[R]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Coordinator[R]) fire(gen uint64) {
	c.mu.Lock()
	// Stop can lose the race with a timer that already fired.
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	q := c.pending
	c.mu.Unlock()

	if q == "" {
		return
	}

	res, err := c.search(context.Background(), q)
	if err != nil {
		c.log.Error("search failed", "query", q, "error", err)
		return
	}
	c.deliver(res)
}
