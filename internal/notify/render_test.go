package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/domain"
)

func TestDispatcher_Render_Golden(t *testing.T) {
	events := []domain.NotificationEvent{
		domain.FriendRequestEvent{Sender: "Ana"},
		domain.FriendRequestEvent{},
		domain.FriendRequestAcceptedEvent{Acceptor: "Ben"},
		domain.PushMessageEvent{Title: "Trip updated", Body: "Paris dates changed", Route: "/trips/t1"},
		domain.PushMessageEvent{Body: "See you at the station"},
		domain.NoInternetEvent{},
	}

	for _, locale := range []string{"en", "de", "es"} {
		t.Run(locale, func(t *testing.T) {
			tmpl, err := LoadTemplates(locale)
			require.NoError(t, err)

			d := NewDispatcher(NewTray(false), tmpl, slog.New(slog.NewTextHandler(io.Discard, nil)))
			n := 0
			d.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }

			rendered := make([]Notification, 0, len(events))
			for _, ev := range events {
				rendered = append(rendered, d.Render(ev))
			}
			data, err := json.MarshalIndent(rendered, "", "  ")
			require.NoError(t, err)

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, "render_"+locale, append(data, '\n'))
		})
	}
}
