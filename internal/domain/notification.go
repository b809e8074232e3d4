package domain

// NotificationEvent is the tagged union of events that can become a user
// notification. The concrete types below are the only implementations.
type NotificationEvent interface {
	notificationEvent()
}

// FriendRequestEvent reports an incoming friend request from Sender.
type FriendRequestEvent struct {
	Sender string
}

// FriendRequestAcceptedEvent reports that Acceptor accepted our friend request.
type FriendRequestAcceptedEvent struct {
	Acceptor string
}

// PushMessageEvent is a generic message delivered by the push relay.
// Route, when set, is the in-app destination opened on tap.
type PushMessageEvent struct {
	Title string
	Body  string
	Route string
}

// NoInternetEvent is raised when the connectivity monitor reports Unavailable.
type NoInternetEvent struct{}

func (FriendRequestEvent) notificationEvent()         {}
func (FriendRequestAcceptedEvent) notificationEvent() {}
func (PushMessageEvent) notificationEvent()           {}
func (NoInternetEvent) notificationEvent()            {}
