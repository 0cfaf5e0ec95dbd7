package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWriteTimeout = 5 * time.Second

// Hub streams events to websocket subscribers of a tip. The partition key of an
// event is the tip id it belongs to. A subscriber that cannot take an event within
// the write timeout is disconnected.
type Hub struct {
	logger       *slog.Logger
	writeTimeout time.Duration
	upgrader   websocket.Upgrader
	clients    map[string]map[*websocket.Conn]bool
	connsToTip map[*websocket.Conn]string
	clientsMu  sync.Mutex
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // tip pages are embedded on creator sites
			},
		},
		clients:    make(map[string]map[*websocket.Conn]bool),
		connsToTip: make(map[*websocket.Conn]string),
	}
}

// ServeWS upgrades the request and streams events of tipID until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, tipID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", "tip_id", tipID, "error", err)
		return
	}

	h.register(conn, tipID)
	h.logger.Debug("tip event subscriber connected", "tip_id", tipID)

	defer h.unregister(conn)
	for {
		// Subscribers only listen, reads detect the disconnect
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Subscribers returns the number of open subscriptions to tipID.
func (h *Hub) Subscribers(tipID string) int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients[tipID])
}

func (h *Hub) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	conns, ok := h.clients[partitionKey]
	if !ok {
		return nil
	}
	for conn := range conns {
		deadline := time.Now().Add(h.writeTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("websocket write failed", "tip_id", partitionKey, "event_type", eventType, "error", err)
			conn.Close()
			delete(conns, conn)
			delete(h.connsToTip, conn)
		}
	}
	if len(conns) == 0 {
		delete(h.clients, partitionKey)
	}
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.connsToTip {
		conn.Close()
	}
	h.clients = make(map[string]map[*websocket.Conn]bool)
	h.connsToTip = make(map[*websocket.Conn]string)
}

func (h *Hub) register(conn *websocket.Conn, tipID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if h.clients[tipID] == nil {
		h.clients[tipID] = make(map[*websocket.Conn]bool)
	}
	h.clients[tipID][conn] = true
	h.connsToTip[conn] = tipID
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if tipID, ok := h.connsToTip[conn]; ok {
		if _, exists := h.clients[tipID][conn]; exists {
			delete(h.clients[tipID], conn)
			if len(h.clients[tipID]) == 0 {
				delete(h.clients, tipID)
			}
		}
		delete(h.connsToTip, conn)
	}
	conn.Close()
}
