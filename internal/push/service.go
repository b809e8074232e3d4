package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/task"
)

// Dispatcher posts notification events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.NotificationEvent) error
}

// Session is the local record of the device token and signed-in user.
type Session interface {
	SetPushToken(ctx context.Context, token string) error
	CurrentUser(ctx context.Context) (string, error)
}

// UserUpdater patches a user document.
type UserUpdater interface {
	UpdateUser(ctx context.Context, id string, patch map[string]any) *task.Task[struct{}]
}

// Service handles inbound push traffic.
type Service struct {
	dispatcher Dispatcher
	session    Session
	users      UserUpdater
	log        *slog.Logger
}

// NewService wires a push Service.
func NewService(d Dispatcher, s Session, u UserUpdater, log *slog.Logger) *Service {
	return &Service{dispatcher: d, session: s, users: u, log: log}
}

// HandleMessage parses raw and dispatches every event it yields. It returns
// the number of events dispatched.
func (s *Service) HandleMessage(ctx context.Context, raw []byte) (int, error) {
	msg, err := ParseMessage(raw)
	if err != nil {
		return 0, err
	}

	events, substituted := msg.Events()
	if substituted {
		s.log.WarnContext(ctx, "unknown push message type, showing generic message",
			"type", msg.Type, "error", domain.ErrParse)
	}

	var errs []error
	for _, ev := range events {
		if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return len(events) - len(errs), fmt.Errorf("push.Service.HandleMessage: %w", err)
	}
	return len(events), nil
}

// RefreshToken stores token locally and, when a user is signed in, writes it
// to that user's document.
func (s *Service) RefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("push.Service.RefreshToken: %w: empty token", domain.ErrValidation)
	}
	if err := s.session.SetPushToken(ctx, token); err != nil {
		return fmt.Errorf("push.Service.RefreshToken: %w", err)
	}

	userID, err := s.session.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("push.Service.RefreshToken: %w", err)
	}
	if userID == "" {
		s.log.DebugContext(ctx, "push token stored, no signed-in user")
		return nil
	}

	if _, err := s.users.UpdateUser(ctx, userID, map[string]any{"pushToken": token}).Await(ctx); err != nil {
		return fmt.Errorf("push.Service.RefreshToken: %w", err)
	}
	return nil
}
