package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/tripsync/internal/domain"
)

// SessionStore persists the signed-in user id on the device.
type SessionStore interface {
	SignIn(ctx context.Context, userID string) error
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
}

// Session keeps the stored user id and the containers' owner in step.
type Session struct {
	store SessionStore
	trips *TripState
	users *UserState
}

// NewSession returns a Session driving trips and users from store.
func NewSession(store SessionStore, trips *TripState, users *UserState) *Session {
	return &Session{store: store, trips: trips, users: users}
}

// Restore points the containers at the user recorded in the store and
// returns that id.
func (s *Session) Restore(ctx context.Context) (string, error) {
	id, err := s.store.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("service.Session.Restore: %w", err)
	}
	if err := s.switchTo(ctx, id); err != nil {
		return "", fmt.Errorf("service.Session.Restore: %w", err)
	}
	return id, nil
}

// SignIn records userID and reloads every container for them.
func (s *Session) SignIn(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("service.Session.SignIn: %w: user id is required", domain.ErrValidation)
	}
	if err := s.store.SignIn(ctx, userID); err != nil {
		return fmt.Errorf("service.Session.SignIn: %w", err)
	}
	if err := s.switchTo(ctx, userID); err != nil {
		return fmt.Errorf("service.Session.SignIn: %w", err)
	}
	return nil
}

// SignOut forgets the signed-in user.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.SignOut(ctx); err != nil {
		return fmt.Errorf("service.Session.SignOut: %w", err)
	}
	if err := s.switchTo(ctx, ""); err != nil {
		return fmt.Errorf("service.Session.SignOut: %w", err)
	}
	return nil
}

// CurrentUser returns the stored user id, or "".
func (s *Session) CurrentUser(ctx context.Context) (string, error) {
	return s.store.CurrentUser(ctx)
}

// switchTo waits for both reloads. A failed reload still leaves the new owner
// in place; the error only reports it.
func (s *Session) switchTo(ctx context.Context, userID string) error {
	trips := s.trips.SetOwner(ctx, userID)
	users := s.users.SetCurrentUser(ctx, userID)
	_, err1 := trips.Await(ctx)
	_, err2 := users.Await(ctx)
	return errors.Join(err1, err2)
}
