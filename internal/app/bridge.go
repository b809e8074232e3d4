package app

import (
	"context"
	"log/slog"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/observable"
)

// ConnectionSource streams connection states, the current one first.
type ConnectionSource interface {
	Subscribe(fn func(domain.ConnectionState)) *observable.Subscription
}

// EventDispatcher posts notification events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev domain.NotificationEvent) error
}

// BridgeNoInternet dispatches a NoInternet notification every time src moves
// to Unavailable. Starting offline counts as a move. Dispose the returned
// subscription to stop.
func BridgeNoInternet(ctx context.Context, src ConnectionSource, d EventDispatcher, log *slog.Logger) *observable.Subscription {
	// Emissions are serialized by the source, so prev needs no lock.
	prev := domain.Available
	return src.Subscribe(func(s domain.ConnectionState) {
		defer func() { prev = s }()
		if s != domain.Unavailable || prev == domain.Unavailable {
			return
		}
		if err := d.Dispatch(ctx, domain.NoInternetEvent{}); err != nil {
			log.ErrorContext(ctx, "dispatch no-internet notification", "error", err)
		}
	})
}
