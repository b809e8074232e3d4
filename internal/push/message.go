// Package push ingests messages and token refreshes from the push relay.
package push

import (
	"encoding/json"
	"fmt"

	"github.com/pkordes/tripsync/internal/domain"
)

// Message types carried in the type discriminator.
const (
	TypeFriendRequest         = "friend_request"
	TypeFriendRequestAccepted = "friend_request_accepted"
)

// Data keys read from the payload.
const (
	DataSenderName   = "senderName"
	DataAcceptorName = "acceptorName"
	DataTitle        = "title"
	DataBody         = "body"
	DataRoute        = "route"
)

// Message is an inbound push message.
type Message struct {
	Type         string            `json:"type,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Notification *NotificationBody `json:"notification,omitempty"`
}

// NotificationBody is the display block some messages carry.
type NotificationBody struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// wireMessage accepts any JSON value in data.
type wireMessage struct {
	Type         string                     `json:"type"`
	Data         map[string]json.RawMessage `json:"data"`
	Notification *NotificationBody          `json:"notification"`
}

// ParseMessage decodes raw. Data values that are not strings are kept in
// their JSON text form. Only a body that is not a JSON object fails, with
// domain.ErrParse.
func ParseMessage(raw []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, fmt.Errorf("push.ParseMessage: %w: %v", domain.ErrParse, err)
	}

	m := Message{Type: w.Type, Notification: w.Notification, Data: make(map[string]string, len(w.Data))}
	for k, v := range w.Data {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			m.Data[k] = s
			continue
		}
		m.Data[k] = string(v)
	}
	return m, nil
}

// Events maps m to the notification events it produces, and reports whether
// an unrecognized type had to be replaced by a generic message. The
// notification block, when present, always yields its own event.
func (m Message) Events() (events []domain.NotificationEvent, substituted bool) {
	switch m.Type {
	case TypeFriendRequest:
		events = append(events, domain.FriendRequestEvent{Sender: m.Data[DataSenderName]})
	case TypeFriendRequestAccepted:
		events = append(events, domain.FriendRequestAcceptedEvent{Acceptor: m.Data[DataAcceptorName]})
	default:
		title, body := m.Data[DataTitle], m.Data[DataBody]
		switch {
		case title != "" || body != "":
			events = append(events, domain.PushMessageEvent{Title: title, Body: body, Route: m.Data[DataRoute]})
		case m.Type != "":
			events = append(events, domain.PushMessageEvent{Route: m.Data[DataRoute]})
			substituted = true
		}
	}

	if n := m.Notification; n != nil && (n.Title != "" || n.Body != "") {
		events = append(events, domain.PushMessageEvent{Title: n.Title, Body: n.Body, Route: m.Data[DataRoute]})
	}
	return events, substituted
}
