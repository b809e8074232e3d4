package push_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/push"
	"github.com/pkordes/tripsync/internal/task"
)

type mockDispatcher struct {
	dispatch func(ctx context.Context, ev domain.NotificationEvent) error
	events   []domain.NotificationEvent
}

func (m *mockDispatcher) Dispatch(ctx context.Context, ev domain.NotificationEvent) error {
	m.events = append(m.events, ev)
	if m.dispatch != nil {
		return m.dispatch(ctx, ev)
	}
	return nil
}

type mockSession struct {
	token       string
	currentUser string
	setErr      error
}

func (m *mockSession) SetPushToken(_ context.Context, token string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.token = token
	return nil
}

func (m *mockSession) CurrentUser(context.Context) (string, error) { return m.currentUser, nil }

type mockUsers struct {
	updateUser func(ctx context.Context, id string, patch map[string]any) error
	calls      int
}

func (m *mockUsers) UpdateUser(ctx context.Context, id string, patch map[string]any) *task.Task[struct{}] {
	m.calls++
	return task.Resolved(task.Result[struct{}]{Err: m.updateUser(ctx, id, patch)})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_HandleMessage_DispatchesEachEvent(t *testing.T) {
	d := &mockDispatcher{}
	svc := push.NewService(d, &mockSession{}, &mockUsers{}, discardLogger())

	n, err := svc.HandleMessage(context.Background(),
		[]byte(`{"type":"friend_request","data":{"senderName":"Ana"},"notification":{"title":"Hi"}}`))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []domain.NotificationEvent{
		domain.FriendRequestEvent{Sender: "Ana"},
		domain.PushMessageEvent{Title: "Hi"},
	}, d.events)
}

func TestService_HandleMessage_Malformed(t *testing.T) {
	d := &mockDispatcher{}
	svc := push.NewService(d, &mockSession{}, &mockUsers{}, discardLogger())

	_, err := svc.HandleMessage(context.Background(), []byte(`{`))

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Empty(t, d.events)
}

func TestService_HandleMessage_DispatchFailure(t *testing.T) {
	d := &mockDispatcher{dispatch: func(context.Context, domain.NotificationEvent) error { return errors.New("tray full") }}
	svc := push.NewService(d, &mockSession{}, &mockUsers{}, discardLogger())

	n, err := svc.HandleMessage(context.Background(), []byte(`{"type":"friend_request"}`))

	assert.ErrorContains(t, err, "tray full")
	assert.Equal(t, 0, n)
}

func TestService_RefreshToken_SignedIn_PatchesUser(t *testing.T) {
	sess := &mockSession{currentUser: "alice"}
	var gotID string
	var gotPatch map[string]any
	users := &mockUsers{updateUser: func(_ context.Context, id string, patch map[string]any) error {
		gotID, gotPatch = id, patch
		return nil
	}}
	svc := push.NewService(&mockDispatcher{}, sess, users, discardLogger())

	require.NoError(t, svc.RefreshToken(context.Background(), "tok-1"))

	assert.Equal(t, "tok-1", sess.token)
	assert.Equal(t, "alice", gotID)
	assert.Equal(t, map[string]any{"pushToken": "tok-1"}, gotPatch)
}

func TestService_RefreshToken_SignedOut_StoresOnly(t *testing.T) {
	sess := &mockSession{}
	users := &mockUsers{}
	svc := push.NewService(&mockDispatcher{}, sess, users, discardLogger())

	require.NoError(t, svc.RefreshToken(context.Background(), "tok-1"))

	assert.Equal(t, "tok-1", sess.token)
	assert.Equal(t, 0, users.calls)
}

func TestService_RefreshToken_Errors(t *testing.T) {
	ctx := context.Background()

	svc := push.NewService(&mockDispatcher{}, &mockSession{}, &mockUsers{}, discardLogger())
	assert.ErrorIs(t, svc.RefreshToken(ctx, ""), domain.ErrValidation)

	svc = push.NewService(&mockDispatcher{}, &mockSession{setErr: errors.New("disk full")}, &mockUsers{}, discardLogger())
	assert.ErrorContains(t, svc.RefreshToken(ctx, "tok"), "disk full")

	users := &mockUsers{updateUser: func(context.Context, string, map[string]any) error { return domain.ErrNotFound }}
	svc = push.NewService(&mockDispatcher{}, &mockSession{currentUser: "ghost"}, users, discardLogger())
	assert.ErrorIs(t, svc.RefreshToken(ctx, "tok"), domain.ErrNotFound)
}
