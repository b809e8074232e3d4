package kv

import (
	"context"
	"errors"
)

// Keys with a fixed meaning.
const (
	KeyPushToken   = "push_token"
	KeyCurrentUser = "current_user"
)

// Session reads and writes the signed-in user and the device push token.
type Session struct {
	store *Store
}

// NewSession returns a Session backed by store.
func NewSession(store *Store) *Session { return &Session{store: store} }

// SignIn records userID as the signed-in user.
func (s *Session) SignIn(ctx context.Context, userID string) error {
	return s.store.Put(ctx, KeyCurrentUser, userID)
}

// SignOut forgets the signed-in user. The push token stays.
func (s *Session) SignOut(ctx context.Context) error {
	return s.store.Delete(ctx, KeyCurrentUser)
}

// CurrentUser returns the signed-in user id, or "" when nobody is signed in.
func (s *Session) CurrentUser(ctx context.Context) (string, error) {
	return s.getOptional(ctx, KeyCurrentUser)
}

// SetPushToken stores the device push token.
func (s *Session) SetPushToken(ctx context.Context, token string) error {
	return s.store.Put(ctx, KeyPushToken, token)
}

// PushToken returns the stored push token, or "".
func (s *Session) PushToken(ctx context.Context) (string, error) {
	return s.getOptional(ctx, KeyPushToken)
}

func (s *Session) getOptional(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
