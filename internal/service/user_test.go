package service_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
	"github.com/pkordes/tripsync/internal/service"
)

type userFixture struct {
	users    *mockGateway[domain.User]
	requests *mockGateway[domain.FriendRequest]
	invites  *mockGateway[domain.TripInvite]
	trips    *mockGateway[domain.Trip]
	state    *service.UserState
}

func newUserFixture(t *testing.T, current string) *userFixture {
	t.Helper()
	f := &userFixture{
		users:    newMock(repo.Users),
		requests: newMock(repo.FriendRequests),
		invites:  newMock(repo.TripInvites),
		trips:    newMock(repo.Trips),
	}
	ctx := context.Background()
	for _, u := range []domain.User{
		{ID: "alice", Name: "Alice", Friends: []string{}},
		{ID: "bob", Name: "Bob", Friends: []string{}},
	} {
		require.NoError(t, f.users.base.Create(ctx, u))
	}

	f.state = service.NewUserState(service.UserGateways{
		Users:          f.users,
		FriendRequests: f.requests,
		TripInvites:    f.invites,
		Trips:          f.trips,
	}, current, discardLogger())
	t.Cleanup(f.state.Close)

	for _, ready := range []interface{ Done() <-chan struct{} }{
		f.state.Users().Ready(), f.state.FriendRequests().Ready(), f.state.TripInvites().Ready(),
	} {
		<-ready.Done()
	}
	return f
}

func TestUserState_FriendRequestLifecycle(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()
	alice := domain.User{ID: "alice", Name: "Alice"}

	req, err := f.state.SendFriendRequest(ctx, alice, "bob").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, "Alice", req.SenderName)

	incoming := f.state.FriendRequests().Items().Get()
	require.Len(t, incoming, 1, "bob sees the request")
	assert.Equal(t, req.ID, incoming[0].ID)

	accepted, err := f.state.AcceptFriendRequest(ctx, "bob", req.ID).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, accepted.Status)

	a, err := f.users.base.Get(ctx, "alice")
	require.NoError(t, err)
	b, err := f.users.base.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, a.HasFriend("bob"))
	assert.True(t, b.HasFriend("alice"))

	for _, u := range f.state.Users().Items().Get() {
		assert.NotEmpty(t, u.Friends, "users list refreshed after accept: %s", u.ID)
	}

	_, err = f.state.AcceptFriendRequest(ctx, "bob", req.ID).Await(ctx)
	assert.ErrorIs(t, err, domain.ErrValidation, "already accepted")
}

func TestUserState_SendFriendRequest_Invalid(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()

	_, err := f.state.SendFriendRequest(ctx, domain.User{ID: "alice"}, "alice").Await(ctx)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.state.SendFriendRequest(ctx, domain.User{ID: "alice", Friends: []string{"bob"}}, "bob").Await(ctx)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserState_DeclineFriendRequest(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()

	req, err := f.state.SendFriendRequest(ctx, domain.User{ID: "alice"}, "bob").Await(ctx)
	require.NoError(t, err)
	_, err = f.state.DeclineFriendRequest(ctx, "bob", req.ID).Await(ctx)
	require.NoError(t, err)

	got, err := f.requests.base.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, got.Status)

	b, err := f.users.base.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, b.Friends)
}

func TestUserState_TripInviteAccept_AddsParticipant(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()
	trip := domain.Trip{ID: "t1", Name: "Alps", Creator: "alice", Participants: []string{"alice"}}
	require.NoError(t, f.trips.base.Create(ctx, trip))

	var changed atomic.Int32
	f.state.OnTripsChanged(func(context.Context) { changed.Add(1) })

	inv, err := f.state.SendTripInvite(ctx, "alice", trip, "bob").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alps", inv.TripName)
	require.Len(t, f.state.TripInvites().Items().Get(), 1)

	_, err = f.state.AcceptTripInvite(ctx, "bob", inv.ID).Await(ctx)
	require.NoError(t, err)

	got, err := f.trips.base.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.Participants)
	assert.EqualValues(t, 1, changed.Load())

	stored, err := f.invites.base.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestUserState_TripInviteAccept_MissingTrip(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()

	inv, err := f.state.SendTripInvite(ctx, "alice", domain.Trip{ID: "gone", Name: "Gone"}, "bob").Await(ctx)
	require.NoError(t, err)
	before := f.state.TripInvites().Items().Get()

	_, err = f.state.AcceptTripInvite(ctx, "bob", inv.ID).Await(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, f.state.TripInvites().Items().Get())
}

func TestUserState_SendTripInvite_ExistingParticipant(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()
	trip := domain.Trip{ID: "t1", Participants: []string{"alice", "bob"}}

	_, err := f.state.SendTripInvite(ctx, "alice", trip, "bob").Await(ctx)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserState_SetCurrentUser_SwitchesInbox(t *testing.T) {
	f := newUserFixture(t, "")
	ctx := context.Background()
	require.NoError(t, f.requests.base.Create(ctx, domain.FriendRequest{ID: "r1", SenderID: "alice", ReceiverID: "bob", Status: domain.StatusPending}))
	require.NoError(t, f.requests.base.Create(ctx, domain.FriendRequest{ID: "r2", SenderID: "bob", ReceiverID: "alice", Status: domain.StatusPending}))

	_, err := f.state.SetCurrentUser(ctx, "alice").Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, "alice", f.state.CurrentUser())
	reqs := f.state.FriendRequests().Items().Get()
	require.Len(t, reqs, 1)
	assert.Equal(t, "r2", reqs[0].ID)
}

func TestUserState_CreateAndUpdateUser(t *testing.T) {
	f := newUserFixture(t, "")
	ctx := context.Background()

	u, err := f.state.CreateUser(ctx, domain.User{Name: "Carol", Email: "carol@example.com"}).Await(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Len(t, f.state.Users().Items().Get(), 3)

	_, err = f.state.UpdateUser(ctx, u.ID, map[string]any{"pushToken": "tok"}).Await(ctx)
	require.NoError(t, err)

	got, err := f.users.base.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.PushToken)
}

func TestUserState_InboxEmptyWhileSignedOut(t *testing.T) {
	ctx := context.Background()
	requests := newMock(repo.FriendRequests)
	require.NoError(t, requests.base.Create(ctx, domain.FriendRequest{ID: "r1", SenderID: "alice", ReceiverID: "bob", Status: domain.StatusPending}))
	require.NoError(t, requests.base.Create(ctx, domain.FriendRequest{ID: "r2", SenderID: "alice", ReceiverID: "carol", Status: domain.StatusPending}))
	invites := newMock(repo.TripInvites)
	require.NoError(t, invites.base.Create(ctx, domain.TripInvite{ID: "i1", TripID: "t1", InviterID: "alice", InviteeID: "bob", Status: domain.StatusPending}))

	state := service.NewUserState(service.UserGateways{
		Users:          newMock(repo.Users),
		FriendRequests: requests,
		TripInvites:    invites,
		Trips:          newMock(repo.Trips),
	}, "", discardLogger())
	t.Cleanup(state.Close)

	got, err := state.FriendRequests().Ready().Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, state.FriendRequests().Items().Get())
	_, err = state.TripInvites().Ready().Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.TripInvites().Items().Get())
	assert.Zero(t, requests.getAllCalls.Load(), "signed out inbox never reads the collection")
	assert.Zero(t, invites.getAllCalls.Load())

	_, err = state.SetCurrentUser(ctx, "bob").Await(ctx)
	require.NoError(t, err)
	reqs := state.FriendRequests().Items().Get()
	require.Len(t, reqs, 1)
	assert.Equal(t, "r1", reqs[0].ID)
	assert.Len(t, state.TripInvites().Items().Get(), 1)

	_, err = state.SetCurrentUser(ctx, "").Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.FriendRequests().Items().Get())
	assert.Empty(t, state.TripInvites().Items().Get())
}

func TestUserState_AnswerRequiresAddressee(t *testing.T) {
	f := newUserFixture(t, "bob")
	ctx := context.Background()
	trip := domain.Trip{ID: "t1", Name: "Alps", Creator: "alice", Participants: []string{"alice"}}
	require.NoError(t, f.trips.base.Create(ctx, trip))

	req, err := f.state.SendFriendRequest(ctx, domain.User{ID: "alice"}, "bob").Await(ctx)
	require.NoError(t, err)
	inv, err := f.state.SendTripInvite(ctx, "alice", trip, "bob").Await(ctx)
	require.NoError(t, err)

	for _, caller := range []string{"alice", "mallory", ""} {
		_, err = f.state.AcceptFriendRequest(ctx, caller, req.ID).Await(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "accept request as %q", caller)
		_, err = f.state.DeclineFriendRequest(ctx, caller, req.ID).Await(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "decline request as %q", caller)
		_, err = f.state.AcceptTripInvite(ctx, caller, inv.ID).Await(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "accept invite as %q", caller)
		_, err = f.state.DeclineTripInvite(ctx, caller, inv.ID).Await(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound, "decline invite as %q", caller)
	}

	stored, err := f.requests.base.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	got, err := f.trips.base.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Participants)
	a, err := f.users.base.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, a.Friends)
}
