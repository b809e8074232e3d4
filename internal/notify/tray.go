package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tray keeps posted notifications in memory, in posting order. Posting an id
// that is already shown replaces it in place.
type Tray struct {
	requiresPermission bool
	granted            atomic.Bool

	mu       sync.Mutex
	channels map[string]Channel
	creates  int
	order    []string
	shown    map[string]Notification
}

// NewTray returns an empty tray. When requiresPermission is set nothing is
// posted until Grant is called.
func NewTray(requiresPermission bool) *Tray {
	return &Tray{
		requiresPermission: requiresPermission,
		channels:           map[string]Channel{},
		shown:              map[string]Notification{},
	}
}

// Grant grants or revokes the notification permission.
func (t *Tray) Grant(granted bool) { t.granted.Store(granted) }

func (t *Tray) CreateChannel(_ context.Context, ch Channel) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.creates++
	t.channels[ch.ID] = ch
	return nil
}

func (t *Tray) RequiresPermission() bool { return t.requiresPermission }
func (t *Tray) PermissionGranted() bool  { return t.granted.Load() }

func (t *Tray) Post(_ context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.shown[n.ID]; !ok {
		t.order = append(t.order, n.ID)
	}
	t.shown[n.ID] = n
	return nil
}

// Shown returns the visible notifications, oldest first.
func (t *Tray) Shown() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.shown[id])
	}
	return out
}

// Channels returns the registered channels and how many times channel
// creation was requested.
func (t *Tray) Channels() (map[string]Channel, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Channel, len(t.channels))
	for k, v := range t.channels {
		out[k] = v
	}
	return out, t.creates
}
