package observable

import "sync/atomic"

// Subscription is a disposable registration. The dispose function runs at most
// once no matter how many times Dispose is called.
type Subscription struct {
	disposed atomic.Bool
	dispose  func()
}

// NewSubscription wraps dispose in a one-shot Subscription.
func NewSubscription(dispose func()) *Subscription {
	return &Subscription{dispose: dispose}
}

// Dispose releases the registration. Calls after the first are no-ops.
func (s *Subscription) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	if s.dispose != nil {
		s.dispose()
	}
}

// Disposed reports whether Dispose has been called.
func (s *Subscription) Disposed() bool {
	return s.disposed.Load()
}
