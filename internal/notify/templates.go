package notify

import (
	_ "embed"
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Message keys used by the dispatcher.
const (
	keyChannelName         = "channel.name"
	keyChannelDescription  = "channel.description"
	keySomeone             = "someone"
	keyFriendRequestTitle  = "friend_request.title"
	keyFriendRequestText   = "friend_request.text"
	keyFriendAcceptedTitle = "friend_request_accepted.title"
	keyFriendAcceptedText  = "friend_request_accepted.text"
	keyPushMessageTitle    = "push_message.title"
	keyNoInternetTitle     = "no_internet.title"
	keyNoInternetText      = "no_internet.text"
)

var requiredKeys = []string{
	keyChannelName, keyChannelDescription, keySomeone,
	keyFriendRequestTitle, keyFriendRequestText,
	keyFriendAcceptedTitle, keyFriendAcceptedText,
	keyPushMessageTitle, keyNoInternetTitle, keyNoInternetText,
}

// Templates renders notification texts in one language.
type Templates struct {
	printer *message.Printer
	tag     language.Tag
}

// LoadTemplates returns the built-in templates for the language best matching
// locale. English is used when nothing matches.
func LoadTemplates(locale string) (*Templates, error) {
	return ParseTemplates(defaultTemplates, locale)
}

// ParseTemplates reads a YAML document mapping message key to language to
// text. English must be present for every key dispatch uses.
func ParseTemplates(data []byte, locale string) (*Templates, error) {
	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("notify.ParseTemplates: %w", err)
	}

	for _, key := range requiredKeys {
		if _, ok := doc[key]["en"]; !ok {
			return nil, fmt.Errorf("notify.ParseTemplates: missing English text for %q", key)
		}
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for lang, text := range doc[key] {
			tag, err := language.Parse(lang)
			if err != nil {
				return nil, fmt.Errorf("notify.ParseTemplates: %s: %w", key, err)
			}
			if err := b.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("notify.ParseTemplates: %s/%s: %w", key, lang, err)
			}
		}
	}

	want, err := language.Parse(locale)
	if err != nil {
		want = language.English
	}
	// the matcher falls back to its first entry
	supported := append([]language.Tag{language.English}, b.Languages()...)
	tag, _, _ := language.NewMatcher(supported).Match(want)

	return &Templates{
		printer: message.NewPrinter(tag, message.Catalog(b)),
		tag:     tag,
	}, nil
}

// Language is the language texts are rendered in.
func (t *Templates) Language() language.Tag { return t.tag }

// Render formats the message for key with args.
func (t *Templates) Render(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}
