// Package connectivity reports whether the host can reach the internet, as a
// snapshot or as a stream of changes.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/observable"
)

// Network is one active network as seen by the platform.
type Network struct {
	Name string
	// Internet reports whether the network advertises internet capability.
	Internet bool
}

// NetworkCallback receives changes to internet-capable networks.
type NetworkCallback struct {
	OnAvailable func(Network)
	OnLost      func(Network)
}

// Platform is the OS network layer.
type Platform interface {
	// ActiveNetworks lists the networks that are currently up.
	ActiveNetworks() []Network
	// RegisterNetworkCallback starts delivering changes for internet-capable
	// networks to cb and returns the function that stops them.
	RegisterNetworkCallback(cb NetworkCallback) (unregister func())
}

// Monitor derives a ConnectionState from a Platform.
type Monitor struct {
	platform Platform
	log      *slog.Logger

	// last is the most recently emitted state, swapped atomically by
	// platform callbacks.
	last atomic.Int32
}

// NewMonitor returns a Monitor over p.
func NewMonitor(p Platform, log *slog.Logger) *Monitor {
	m := &Monitor{platform: p, log: log}
	m.last.Store(int32(m.Current()))
	return m
}

// Current scans the active networks: Available if any of them has internet
// capability.
func (m *Monitor) Current() domain.ConnectionState {
	for _, n := range m.platform.ActiveNetworks() {
		if n.Internet {
			return domain.Available
		}
	}
	return domain.Unavailable
}

// Check returns domain.ErrConnectivity when Current is Unavailable.
func (m *Monitor) Check() error {
	if m.Current() == domain.Unavailable {
		return domain.ErrConnectivity
	}
	return nil
}

// Last returns the state most recently emitted to any subscriber.
func (m *Monitor) Last() domain.ConnectionState {
	return domain.ConnectionState(m.last.Load())
}

// Subscribe registers one platform listener, emits the current snapshot to fn
// and then every change. Disposing the subscription unregisters the listener
// exactly once; later Dispose calls do nothing.
func (m *Monitor) Subscribe(fn func(domain.ConnectionState)) *observable.Subscription {
	var (
		// emitMu keeps deliveries to fn in order. Dispose never takes it, so
		// fn may dispose its own subscription.
		emitMu   sync.Mutex
		disposed atomic.Bool
	)
	emit := func(s domain.ConnectionState) {
		emitMu.Lock()
		defer emitMu.Unlock()
		if disposed.Load() {
			return
		}
		prev := domain.ConnectionState(m.last.Swap(int32(s)))
		if prev != s {
			m.log.Info("connectivity changed", "state", s.String())
		}
		fn(s)
	}

	unregister := m.platform.RegisterNetworkCallback(NetworkCallback{
		OnAvailable: func(Network) { emit(domain.Available) },
		// Losing one network leaves us online if another capable one remains.
		OnLost: func(Network) { emit(m.Current()) },
	})
	emit(m.Current())

	return observable.NewSubscription(func() {
		disposed.Store(true)
		unregister()
	})
}

// Watch streams states on a channel until ctx is done. A slow reader sees
// only the latest state.
func (m *Monitor) Watch(ctx context.Context) <-chan domain.ConnectionState {
	v := observable.New(m.Current())
	sub := m.Subscribe(v.Set)
	go func() {
		<-ctx.Done()
		sub.Dispose()
	}()
	return v.Watch(ctx)
}
