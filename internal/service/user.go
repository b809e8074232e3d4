package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
	"github.com/pkordes/tripsync/internal/task"
)

// UserGateways are the collections UserState reads and writes.
type UserGateways struct {
	Users          repo.Gateway[domain.User]
	FriendRequests repo.Gateway[domain.FriendRequest]
	TripInvites    repo.Gateway[domain.TripInvite]
	Trips          repo.Gateway[domain.Trip]
}

// UserState holds the user directory plus the current user's incoming
// friend requests and trip invites.
type UserState struct {
	users    *Container[domain.User]
	requests *Container[domain.FriendRequest]
	invites  *Container[domain.TripInvite]
	trips    repo.Gateway[domain.Trip]
	log      *slog.Logger

	current atomic.Pointer[string]
	now     func() time.Time

	// tripsChanged runs after an accepted invite added a participant.
	tripsChanged func(ctx context.Context)
}

// NewUserState wires the user containers. currentUser may be empty until
// SetCurrentUser is called.
func NewUserState(gw UserGateways, currentUser string, log *slog.Logger) *UserState {
	s := &UserState{
		users:    NewContainer("users", gw.Users, "", log),
		requests: newContainer("friend_requests", gw.FriendRequests, log, inbox(currentUser)),
		invites:  newContainer("trip_invites", gw.TripInvites, log, inbox(currentUser)),
		trips:    gw.Trips,
		log:      log.With("container", "users"),
		now:      time.Now,
	}
	s.current.Store(&currentUser)
	return s
}

// inbox options scope a container to one user and keep it empty while
// nobody is signed in.
func inbox(owner string) containerOptions {
	return containerOptions{owner: owner, requireOwner: true}
}

// OnTripsChanged registers fn to run after an accepted invite changed a trip.
func (s *UserState) OnTripsChanged(fn func(ctx context.Context)) { s.tripsChanged = fn }

func (s *UserState) Users() *Container[domain.User]                  { return s.users }
func (s *UserState) FriendRequests() *Container[domain.FriendRequest] { return s.requests }
func (s *UserState) TripInvites() *Container[domain.TripInvite]       { return s.invites }

// CurrentUser returns the signed-in user id, or "" when signed out.
func (s *UserState) CurrentUser() string { return *s.current.Load() }

// SetCurrentUser switches the signed-in user and reloads their requests and invites.
func (s *UserState) SetCurrentUser(ctx context.Context, userID string) *task.Task[struct{}] {
	s.current.Store(&userID)
	reqs := s.requests.SetOwner(ctx, userID)
	invs := s.invites.SetOwner(ctx, userID)
	return task.Go(context.WithoutCancel(ctx), func(ctx context.Context) (struct{}, error) {
		_, err1 := reqs.Await(ctx)
		_, err2 := invs.Await(ctx)
		if err1 != nil {
			return struct{}{}, err1
		}
		return struct{}{}, err2
	})
}

// CreateUser writes u, assigning an id when it has none.
func (s *UserState) CreateUser(ctx context.Context, u domain.User) *task.Task[domain.User] {
	return mutate(ctx, s.users, "create user", func(ctx context.Context) (domain.User, error) {
		if u.ID == "" {
			id, err := s.users.gw.NewID(ctx)
			if err != nil {
				return domain.User{}, fmt.Errorf("service.UserState.CreateUser: %w", err)
			}
			u.ID = id
		}
		if u.Friends == nil {
			u.Friends = []string{}
		}
		if err := s.users.gw.Create(ctx, u); err != nil {
			return domain.User{}, fmt.Errorf("service.UserState.CreateUser: %w", err)
		}
		return u, nil
	})
}

// UpdateUser merges patch into the user with the given id.
func (s *UserState) UpdateUser(ctx context.Context, id string, patch map[string]any) *task.Task[struct{}] {
	return mutate(ctx, s.users, "update user", func(ctx context.Context) (struct{}, error) {
		if err := s.users.gw.Update(ctx, id, patch); err != nil {
			return struct{}{}, fmt.Errorf("service.UserState.UpdateUser: %w", err)
		}
		return struct{}{}, nil
	})
}

// SendFriendRequest records a pending request from sender to receiverID.
func (s *UserState) SendFriendRequest(ctx context.Context, sender domain.User, receiverID string) *task.Task[domain.FriendRequest] {
	switch {
	case receiverID == "" || receiverID == sender.ID:
		return task.Resolved(task.Fail[domain.FriendRequest](
			fmt.Errorf("%w: cannot send a friend request to yourself", domain.ErrValidation)))
	case sender.HasFriend(receiverID):
		return task.Resolved(task.Fail[domain.FriendRequest](
			fmt.Errorf("%w: already friends", domain.ErrValidation)))
	}

	return mutate(ctx, s.requests, "send friend request", func(ctx context.Context) (domain.FriendRequest, error) {
		id, err := s.requests.gw.NewID(ctx)
		if err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.SendFriendRequest: %w", err)
		}
		req := domain.FriendRequest{
			ID:         id,
			SenderID:   sender.ID,
			SenderName: sender.Name,
			ReceiverID: receiverID,
			Status:     domain.StatusPending,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.requests.gw.Create(ctx, req); err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.SendFriendRequest: %w", err)
		}
		return req, nil
	})
}

// AcceptFriendRequest marks the request accepted and adds each user to the
// other's friend list. Only the receiver, userID, may accept it.
func (s *UserState) AcceptFriendRequest(ctx context.Context, userID, requestID string) *task.Task[domain.FriendRequest] {
	t := mutate(ctx, s.requests, "accept friend request", func(ctx context.Context) (domain.FriendRequest, error) {
		req, err := s.pendingRequest(ctx, userID, requestID)
		if err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.AcceptFriendRequest: %w", err)
		}
		if err := s.befriend(ctx, req.ReceiverID, req.SenderID); err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.AcceptFriendRequest: %w", err)
		}
		if err := s.befriend(ctx, req.SenderID, req.ReceiverID); err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.AcceptFriendRequest: %w", err)
		}
		if err := s.requests.gw.Update(ctx, req.ID, map[string]any{"status": domain.StatusAccepted}); err != nil {
			return domain.FriendRequest{}, fmt.Errorf("service.UserState.AcceptFriendRequest: %w", err)
		}
		req.Status = domain.StatusAccepted
		return req, nil
	})
	return task.Then(context.WithoutCancel(ctx), t, func(ctx context.Context, req domain.FriendRequest) (domain.FriendRequest, error) {
		// friend lists changed too
		_, _ = s.users.Refresh(ctx).Await(ctx)
		return req, nil
	})
}

// DeclineFriendRequest marks the request declined on behalf of its receiver.
func (s *UserState) DeclineFriendRequest(ctx context.Context, userID, requestID string) *task.Task[struct{}] {
	return mutate(ctx, s.requests, "decline friend request", func(ctx context.Context) (struct{}, error) {
		req, err := s.pendingRequest(ctx, userID, requestID)
		if err != nil {
			return struct{}{}, fmt.Errorf("service.UserState.DeclineFriendRequest: %w", err)
		}
		if err := s.requests.gw.Update(ctx, req.ID, map[string]any{"status": domain.StatusDeclined}); err != nil {
			return struct{}{}, fmt.Errorf("service.UserState.DeclineFriendRequest: %w", err)
		}
		return struct{}{}, nil
	})
}

// SendTripInvite invites inviteeID to trip on behalf of inviterID.
func (s *UserState) SendTripInvite(ctx context.Context, inviterID string, trip domain.Trip, inviteeID string) *task.Task[domain.TripInvite] {
	if inviteeID == "" || trip.HasParticipant(inviteeID) {
		return task.Resolved(task.Fail[domain.TripInvite](
			fmt.Errorf("%w: invitee already participates", domain.ErrValidation)))
	}
	return mutate(ctx, s.invites, "send trip invite", func(ctx context.Context) (domain.TripInvite, error) {
		id, err := s.invites.gw.NewID(ctx)
		if err != nil {
			return domain.TripInvite{}, fmt.Errorf("service.UserState.SendTripInvite: %w", err)
		}
		inv := domain.TripInvite{
			ID:        id,
			TripID:    trip.ID,
			TripName:  trip.Name,
			InviterID: inviterID,
			InviteeID: inviteeID,
			Status:    domain.StatusPending,
			CreatedAt: s.now().UTC(),
		}
		if err := s.invites.gw.Create(ctx, inv); err != nil {
			return domain.TripInvite{}, fmt.Errorf("service.UserState.SendTripInvite: %w", err)
		}
		return inv, nil
	})
}

// AcceptTripInvite adds the invitee to the trip's participants and marks the
// invite accepted. userID must be the invitee.
func (s *UserState) AcceptTripInvite(ctx context.Context, userID, inviteID string) *task.Task[domain.TripInvite] {
	t := mutate(ctx, s.invites, "accept trip invite", func(ctx context.Context) (domain.TripInvite, error) {
		inv, err := s.pendingInvite(ctx, userID, inviteID)
		if err != nil {
			return domain.TripInvite{}, fmt.Errorf("service.UserState.AcceptTripInvite: %w", err)
		}
		trip, err := s.trips.Get(ctx, inv.TripID)
		if err != nil {
			return domain.TripInvite{}, fmt.Errorf("service.UserState.AcceptTripInvite: %w", err)
		}
		if !trip.HasParticipant(inv.InviteeID) {
			participants := append(slices.Clone(trip.Participants), inv.InviteeID)
			if err := s.trips.Update(ctx, trip.ID, map[string]any{"participants": participants}); err != nil {
				return domain.TripInvite{}, fmt.Errorf("service.UserState.AcceptTripInvite: %w", err)
			}
		}
		if err := s.invites.gw.Update(ctx, inv.ID, map[string]any{"status": domain.StatusAccepted}); err != nil {
			return domain.TripInvite{}, fmt.Errorf("service.UserState.AcceptTripInvite: %w", err)
		}
		inv.Status = domain.StatusAccepted
		return inv, nil
	})
	return task.Then(context.WithoutCancel(ctx), t, func(ctx context.Context, inv domain.TripInvite) (domain.TripInvite, error) {
		if s.tripsChanged != nil {
			s.tripsChanged(ctx)
		}
		return inv, nil
	})
}

// DeclineTripInvite marks the invite declined on behalf of its invitee.
func (s *UserState) DeclineTripInvite(ctx context.Context, userID, inviteID string) *task.Task[struct{}] {
	return mutate(ctx, s.invites, "decline trip invite", func(ctx context.Context) (struct{}, error) {
		inv, err := s.pendingInvite(ctx, userID, inviteID)
		if err != nil {
			return struct{}{}, fmt.Errorf("service.UserState.DeclineTripInvite: %w", err)
		}
		if err := s.invites.gw.Update(ctx, inv.ID, map[string]any{"status": domain.StatusDeclined}); err != nil {
			return struct{}{}, fmt.Errorf("service.UserState.DeclineTripInvite: %w", err)
		}
		return struct{}{}, nil
	})
}

// Close stops all three containers.
func (s *UserState) Close() {
	s.users.Close()
	s.requests.Close()
	s.invites.Close()
}

// pendingRequest loads a pending request addressed to receiverID. Requests
// addressed to someone else read as missing.
func (s *UserState) pendingRequest(ctx context.Context, receiverID, id string) (domain.FriendRequest, error) {
	req, err := s.requests.gw.Get(ctx, id)
	if err != nil {
		return req, err
	}
	if receiverID == "" || req.ReceiverID != receiverID {
		return domain.FriendRequest{}, fmt.Errorf("%w: friend request %q", domain.ErrNotFound, id)
	}
	if req.Status != domain.StatusPending {
		return req, fmt.Errorf("%w: friend request is %s", domain.ErrValidation, req.Status)
	}
	return req, nil
}

func (s *UserState) pendingInvite(ctx context.Context, inviteeID, id string) (domain.TripInvite, error) {
	inv, err := s.invites.gw.Get(ctx, id)
	if err != nil {
		return inv, err
	}
	if inviteeID == "" || inv.InviteeID != inviteeID {
		return domain.TripInvite{}, fmt.Errorf("%w: trip invite %q", domain.ErrNotFound, id)
	}
	if inv.Status != domain.StatusPending {
		return inv, fmt.Errorf("%w: trip invite is %s", domain.ErrValidation, inv.Status)
	}
	return inv, nil
}

// befriend appends friendID to userID's friend list if it is not there yet.
func (s *UserState) befriend(ctx context.Context, userID, friendID string) error {
	u, err := s.users.gw.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasFriend(friendID) {
		return nil
	}
	friends := append(slices.Clone(u.Friends), friendID)
	return s.users.gw.Update(ctx, userID, map[string]any{"friends": friends})
}
