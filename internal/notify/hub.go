package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10
	sendBuffer   = 16
)

// Frame is the JSON envelope exchanged with websocket clients.
//
// Server to client: {"type":"channel","channel":{...}} once after connect and
// {"type":"notification","notification":{...}} per post.
// Client to server: {"type":"permission","granted":true}.
type Frame struct {
	Type         string        `json:"type"`
	Channel      *Channel      `json:"channel,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Granted      *bool         `json:"granted,omitempty"`
}

// Hub is a Platform that broadcasts notifications to connected websocket
// clients. Permission is granted once any client sends a permission frame
// with granted=true and revoked when one sends granted=false.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	channel *Channel
	granted bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan Frame
}

// NewHub returns a hub with no clients. checkOrigin may be nil to accept
// only same-origin upgrades.
func NewHub(log *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		clients:  map[*hubClient]struct{}{},
	}
}

func (h *Hub) CreateChannel(_ context.Context, ch Channel) error {
	h.mu.Lock()
	h.channel = &ch
	h.mu.Unlock()
	h.broadcast(Frame{Type: "channel", Channel: &ch})
	return nil
}

func (h *Hub) RequiresPermission() bool { return true }

func (h *Hub) PermissionGranted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.granted
}

func (h *Hub) Post(_ context.Context, n Notification) error {
	h.broadcast(Frame{Type: "notification", Notification: &n})
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan Frame, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.channel != nil {
		c.send <- Frame{Type: "channel", Channel: h.channel}
	}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *hubClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read", "error", err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.log.Debug("ignoring malformed frame", "error", err)
			continue
		}
		if f.Type == "permission" && f.Granted != nil {
			h.mu.Lock()
			h.granted = *f.Granted
			h.mu.Unlock()
			h.log.Info("notification permission changed", "granted", *f.Granted)
		}
	}
}

func (h *Hub) writeLoop(c *hubClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) broadcast(f Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			h.log.Warn("dropping notification for slow client")
		}
	}
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
