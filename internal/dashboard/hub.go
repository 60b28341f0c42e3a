package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/subhanUmer/secureweb-engine/internal/config"
	"github.com/subhanUmer/secureweb-engine/internal/ringlog"
)

const eventBufferSize = 1000

var eventCounter atomic.Uint64

// Hub manages WebSocket clients, event broadcasting, and stats.
type Hub struct {
	events *ringlog.Log[*EngineEvent]
	stats  *Stats
	config *config.Config

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a new dashboard hub.
func NewHub(cfg *config.Config) *Hub {
	return &Hub{
		events:  ringlog.New[*EngineEvent](eventBufferSize),
		stats:   NewStats(),
		config:  cfg,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// OnEvent is the observer callback to register with the engine.
func (h *Hub) OnEvent(e EngineEvent) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("evt-%d", eventCounter.Add(1))
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	h.events.Append(&e)
	h.stats.Record(&e)

	msg := WSMessage{Type: "event", Payload: &e}
	h.broadcast(msg)
}

// Register adds a WebSocket client and sends it the initial state.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	initial := WSMessage{
		Type: "initial_state",
		Payload: InitialState{
			Events: h.events.Oldest(),
			Stats:  h.stats.Snapshot(),
			Config: h.config,
		},
	}

	data, err := json.Marshal(initial)
	if err != nil {
		return
	}
	conn.Write(context.Background(), websocket.MessageText, data)
}

// Unregister removes a WebSocket client.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// broadcast sends a message to all connected clients.
func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		err := c.Write(context.Background(), websocket.MessageText, data)
		if err != nil {
			h.Unregister(c)
		}
	}
}

// StartStatsBroadcast pushes stats snapshots to all clients every interval.
func (h *Hub) StartStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := WSMessage{
				Type:    "stats_update",
				Payload: h.stats.Snapshot(),
			}
			h.broadcast(msg)
		}
	}
}

// Events returns buffered events in chronological order.
func (h *Hub) Events() []*EngineEvent {
	return h.events.Oldest()
}

// StatsSnapshot returns a snapshot of accumulated stats.
func (h *Hub) StatsSnapshot() *StatsSnapshot {
	return h.stats.Snapshot()
}

// EngineConfig returns the loaded configuration.
func (h *Hub) EngineConfig() *config.Config {
	return h.config
}
