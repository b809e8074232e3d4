// Package notify turns notification events into user-visible notifications
// on a platform: a system tray, or browsers connected over a websocket.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/pkordes/tripsync/internal/domain"
)

// ChannelID is the one notification channel used for every notification.
const ChannelID = "tripsync_default"

// Fixed notification ids. A new notification with one of these ids replaces
// the previous one instead of stacking.
const (
	FriendRequestID         = "friend_request"
	FriendRequestAcceptedID = "friend_request_accepted"
)

// Routes opened when a notification is tapped.
const (
	RouteFriendRequests = "/friends/requests"
	RouteFriends        = "/friends"
)

// Channel groups notifications on the platform.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Action is what happens when the user taps a notification.
type Action struct {
	Route string `json:"route"`
}

// Notification is one rendered notification.
type Notification struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channelId"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Action    *Action `json:"action,omitempty"`
}

// Platform shows notifications.
type Platform interface {
	// CreateChannel registers ch. Creating an existing channel is not an error.
	CreateChannel(ctx context.Context, ch Channel) error
	// RequiresPermission reports whether posting needs a runtime permission.
	RequiresPermission() bool
	// PermissionGranted reports whether that permission has been granted.
	PermissionGranted() bool
	// Post shows n, replacing any notification with the same id.
	Post(ctx context.Context, n Notification) error
}

// Dispatcher renders events and posts them to a platform.
type Dispatcher struct {
	platform  Platform
	templates *Templates
	log       *slog.Logger
	newID     func() string

	mu           sync.Mutex
	channelReady bool
}

// NewDispatcher returns a Dispatcher posting to p.
func NewDispatcher(p Platform, t *Templates, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		platform:  p,
		templates: t,
		log:       log,
		newID:     func() string { return ulid.Make().String() },
	}
}

// Dispatch renders ev and posts it. When the platform needs a permission that
// has not been granted, Dispatch does nothing and returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.NotificationEvent) error {
	if err := d.ensureChannel(ctx); err != nil {
		return fmt.Errorf("notify.Dispatcher.Dispatch: %w", err)
	}

	if d.platform.RequiresPermission() && !d.platform.PermissionGranted() {
		d.log.DebugContext(ctx, "notification suppressed", "error", domain.ErrPermission)
		return nil
	}

	n := d.Render(ev)
	if err := d.platform.Post(ctx, n); err != nil {
		return fmt.Errorf("notify.Dispatcher.Dispatch: %w", err)
	}
	d.log.InfoContext(ctx, "notification posted", "id", n.ID, "title", n.Title)
	return nil
}

// Render builds the notification for ev without posting it.
func (d *Dispatcher) Render(ev domain.NotificationEvent) Notification {
	t := d.templates
	n := Notification{ChannelID: ChannelID}

	switch ev := ev.(type) {
	case domain.FriendRequestEvent:
		n.ID = FriendRequestID
		n.Title = t.Render(keyFriendRequestTitle)
		n.Text = t.Render(keyFriendRequestText, d.nameOrSomeone(ev.Sender))
		n.Action = &Action{Route: RouteFriendRequests}

	case domain.FriendRequestAcceptedEvent:
		n.ID = FriendRequestAcceptedID
		n.Title = t.Render(keyFriendAcceptedTitle)
		n.Text = t.Render(keyFriendAcceptedText, d.nameOrSomeone(ev.Acceptor))
		n.Action = &Action{Route: RouteFriends}

	case domain.PushMessageEvent:
		n.ID = d.newID()
		n.Title = ev.Title
		if n.Title == "" {
			n.Title = t.Render(keyPushMessageTitle)
		}
		n.Text = ev.Body
		if ev.Route != "" {
			n.Action = &Action{Route: ev.Route}
		}

	case domain.NoInternetEvent:
		n.ID = d.newID()
		n.Title = t.Render(keyNoInternetTitle)
		n.Text = t.Render(keyNoInternetText)

	default:
		n.ID = d.newID()
		n.Title = t.Render(keyPushMessageTitle)
	}
	return n
}

func (d *Dispatcher) nameOrSomeone(name string) string {
	if name == "" {
		return d.templates.Render(keySomeone)
	}
	return name
}

// ensureChannel creates the channel on first use. A failed attempt is
// retried on the next dispatch.
func (d *Dispatcher) ensureChannel(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.channelReady {
		return nil
	}
	ch := Channel{
		ID:          ChannelID,
		Name:        d.templates.Render(keyChannelName),
		Description: d.templates.Render(keyChannelDescription),
	}
	if err := d.platform.CreateChannel(ctx, ch); err != nil {
		return err
	}
	d.channelReady = true
	return nil
}
