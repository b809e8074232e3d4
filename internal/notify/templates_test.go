package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/notify"
)

func TestLoadTemplates_LanguageMatching(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "Someone"},
		{"de-AT", "Jemand"},
		{"es-MX", "Alguien"},
		{"fr", "Someone"},
		{"not a locale", "Someone"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			tmpl, err := notify.LoadTemplates(tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Render("someone"))
		})
	}
}

func TestParseTemplates_FallsBackToEnglish(t *testing.T) {
	doc := []byte(`
channel.name: {en: Trips}
channel.description: {en: All}
someone: {en: Someone, de: Jemand}
friend_request.title: {en: Request}
friend_request.text: {en: "%s asks"}
friend_request_accepted.title: {en: Accepted}
friend_request_accepted.text: {en: "%s accepted"}
push_message.title: {en: Message}
no_internet.title: {en: Offline}
no_internet.text: {en: Check your connection}
`)
	tmpl, err := notify.ParseTemplates(doc, "de")
	require.NoError(t, err)

	assert.Equal(t, "Jemand", tmpl.Render("someone"))
	assert.Equal(t, "Ana asks", tmpl.Render("friend_request.text", "Ana"))
}

func TestParseTemplates_Invalid(t *testing.T) {
	_, err := notify.ParseTemplates([]byte("someone: [unclosed"), "en")
	assert.Error(t, err)

	_, err = notify.ParseTemplates([]byte("someone: {de: Jemand}"), "en")
	assert.ErrorContains(t, err, "missing English text")
}
