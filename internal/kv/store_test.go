package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/kv"
)

func openStore(t *testing.T) *kv.Store {
	t.Helper()
	s, err := kv.Open(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Put(ctx, "k", "v1"))
	require.NoError(t, s.Put(ctx, "k", "v2"))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"), "deleting twice is fine")
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStore_ReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := kv.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, kv.KeyPushToken, "tok"))
	require.NoError(t, s.Close())

	s, err = kv.Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, kv.KeyPushToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestSession(t *testing.T) {
	sess := kv.NewSession(openStore(t))
	ctx := context.Background()

	user, err := sess.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, user)

	require.NoError(t, sess.SignIn(ctx, "alice"))
	require.NoError(t, sess.SetPushToken(ctx, "tok"))
	user, err = sess.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	require.NoError(t, sess.SignOut(ctx))
	user, err = sess.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, user)

	token, err := sess.PushToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token, "sign-out keeps the token")
}
