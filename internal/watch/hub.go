// Package watch is a minimal event-broadcast hub for the CLI's --watch
// flag: a localhost websocket endpoint that pushes effect-log entries and
// the final result of a single run once that run completes. Grounded in mbflow's
// internal/infrastructure/websocket Hub/Client/Handler trio, stripped of
// per-workflow/per-execution subscription routing (a CLI run has exactly
// one recipient group: whoever is connected) and of JWT auth (Non-goal:
// no auth surface in CAIRS).
package watch

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is one pushed notification: an effect occurrence or the final
// result, shaped for straightforward JSON rendering by a browser client.
type Event struct {
	Type      string      `json:"type"` // "effect" | "result" | "error"
	Seq       uint64      `json:"seq,omitempty"`
	TaskID    string      `json:"taskId,omitempty"`
	Op        string      `json:"op,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans a single stream of Events out to every connected client.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]bool
	broadcast chan Event
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub builds an idle Hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool), broadcast: make(chan Event, 256)}
}

// Run drains the broadcast channel until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					log.Warn().Msg("watch: client buffer full, dropping event")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast enqueues ev for delivery to every connected client.
func (h *Hub) Broadcast(ev Event) {
	h.broadcast <- ev
}

// ServeHTTP upgrades the request to a websocket and streams Events to it
// until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("watch: upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan Event, 64)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		raw, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

// readPump exists only to detect the peer closing the connection; a watch
// client never sends anything meaningful.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
