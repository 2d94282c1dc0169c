// Package live pushes snapshots to browser dashboards over websockets.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HatiCode/pulsewatch/pkg/storage"
)

const writeWait = 200 * time.Millisecond

// Hub tracks connected websocket clients and broadcasts to all of them.
// It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty hub. Any origin may connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler upgrades the request and keeps the connection registered until
// the client goes away. Incoming messages are discarded.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("websocket upgrade failed", "error", err)
			return
		}
		h.add(conn)
		h.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

		defer func() {
			h.remove(conn)
			conn.Close()
			h.logger.Debug("websocket client disconnected", "remote", r.RemoteAddr)
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// Publish broadcasts snap as a JSON text frame. Clients that cannot be
// written within the deadline are dropped.
func (h *Hub) Publish(snap storage.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	h.broadcastText(b)
	return nil
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *Hub) broadcastText(b []byte) {
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}
