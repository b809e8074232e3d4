package push_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/push"
)

func TestMessage_Events(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        []domain.NotificationEvent
		substituted bool
	}{
		{
			name: "friend request",
			raw:  `{"type":"friend_request","data":{"senderName":"Ana"}}`,
			want: []domain.NotificationEvent{domain.FriendRequestEvent{Sender: "Ana"}},
		},
		{
			name: "friend request without sender",
			raw:  `{"type":"friend_request"}`,
			want: []domain.NotificationEvent{domain.FriendRequestEvent{}},
		},
		{
			name: "friend request accepted",
			raw:  `{"type":"friend_request_accepted","data":{"acceptorName":"Ben"}}`,
			want: []domain.NotificationEvent{domain.FriendRequestAcceptedEvent{Acceptor: "Ben"}},
		},
		{
			name: "generic data message",
			raw:  `{"data":{"title":"Trip updated","body":"Dates changed","route":"/trips/t1"}}`,
			want: []domain.NotificationEvent{domain.PushMessageEvent{Title: "Trip updated", Body: "Dates changed", Route: "/trips/t1"}},
		},
		{
			name:        "unknown type falls back to generic",
			raw:         `{"type":"trip_deleted","data":{"tripId":"t1"}}`,
			want:        []domain.NotificationEvent{domain.PushMessageEvent{}},
			substituted: true,
		},
		{
			name: "notification block alone",
			raw:  `{"notification":{"title":"Hi","body":"There"}}`,
			want: []domain.NotificationEvent{domain.PushMessageEvent{Title: "Hi", Body: "There"}},
		},
		{
			name: "typed message plus notification block",
			raw:  `{"type":"friend_request","data":{"senderName":"Ana"},"notification":{"title":"Hi","body":"There"}}`,
			want: []domain.NotificationEvent{
				domain.FriendRequestEvent{Sender: "Ana"},
				domain.PushMessageEvent{Title: "Hi", Body: "There"},
			},
		},
		{
			name: "empty message",
			raw:  `{}`,
			want: nil,
		},
		{
			name: "non-string data values",
			raw:  `{"data":{"title":"Count","body":3}}`,
			want: []domain.NotificationEvent{domain.PushMessageEvent{Title: "Count", Body: "3"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := push.ParseMessage([]byte(tt.raw))
			require.NoError(t, err)

			got, substituted := msg.Events()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.substituted, substituted)
		})
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	for _, raw := range []string{`not json`, `[1,2]`, `{"data":"x"}`} {
		_, err := push.ParseMessage([]byte(raw))
		assert.ErrorIs(t, err, domain.ErrParse, raw)
	}
}
