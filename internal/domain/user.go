package domain

import "time"

// User is a member of the planner. Documents are owned by the remote store;
// state containers only hold read-only copies.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	PhotoURL  string   `json:"photoUrl,omitempty"`
	Friends   []string `json:"friends"`
	PushToken string   `json:"pushToken,omitempty"`
}

// HasFriend reports whether userID is in u's friend list.
func (u User) HasFriend(userID string) bool {
	for _, f := range u.Friends {
		if f == userID {
			return true
		}
	}
	return false
}

// RequestStatus is the lifecycle state shared by friend requests and trip invites.
//
//	pending -> accepted (terminal)
//	pending -> declined (terminal)
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// FriendRequest asks ReceiverID to become friends with SenderID.
// Its owner in the store is the receiver.
type FriendRequest struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"senderId"`
	SenderName string        `json:"senderName"`
	ReceiverID string        `json:"receiverId"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// TripInvite asks InviteeID to join TripID. Its owner in the store is the invitee.
type TripInvite struct {
	ID        string        `json:"id"`
	TripID    string        `json:"tripId"`
	TripName  string        `json:"tripName"`
	InviterID string        `json:"inviterId"`
	InviteeID string        `json:"inviteeId"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
