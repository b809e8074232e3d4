package repo

import "github.com/pkordes/tripsync/internal/domain"

// Collection describes how documents of type T are stored: the collection
// name, where the id lives, and which field (if any) carries ownership.
type Collection[T any] struct {
	Name string

	// ID extracts the document id.
	ID func(T) string

	// OwnerField is the JSON field GetAll filters on. Empty means the
	// collection has no owner and the owner argument is ignored.
	OwnerField string
	// OwnerIsList marks OwnerField as an array of user ids.
	OwnerIsList bool
	// Owners returns the ids held in OwnerField. Backends that cannot filter
	// in the store (the in-memory one) use it.
	Owners func(T) []string

	// SearchField is the JSON field matched by Search. Empty means the
	// collection is not searchable.
	SearchField string
	// SearchText returns the value of SearchField for in-memory matching.
	SearchText func(T) string
}

// Trips are owned by every participant.
var Trips = Collection[domain.Trip]{
	Name:        "trips",
	ID:          func(t domain.Trip) string { return t.ID },
	OwnerField:  "participants",
	OwnerIsList: true,
	Owners:      func(t domain.Trip) []string { return t.Participants },
}

// Users are not owned.
var Users = Collection[domain.User]{
	Name: "users",
	ID:   func(u domain.User) string { return u.ID },
}

// FriendRequests are owned by their receiver.
var FriendRequests = Collection[domain.FriendRequest]{
	Name:       "friend_requests",
	ID:         func(r domain.FriendRequest) string { return r.ID },
	OwnerField: "receiverId",
	Owners:     func(r domain.FriendRequest) []string { return []string{r.ReceiverID} },
}

// TripInvites are owned by their invitee.
var TripInvites = Collection[domain.TripInvite]{
	Name:       "trip_invites",
	ID:         func(i domain.TripInvite) string { return i.ID },
	OwnerField: "inviteeId",
	Owners:     func(i domain.TripInvite) []string { return []string{i.InviteeID} },
}

// Places are searched by name.
var Places = Collection[domain.Place]{
	Name:        "places",
	ID:          func(p domain.Place) string { return p.ID },
	SearchField: "name",
	SearchText:  func(p domain.Place) string { return p.Name },
}
