// Package websocket pushes confirmed global-record updates to connected
// menu clients so leaderboard screens refresh without polling.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/player-progress/internal/domain"
)

// MessageTypeRecordUpdate tags global-record broadcast messages.
const MessageTypeRecordUpdate = "record_update"

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Level     *int        `json:"level,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of connected clients and broadcasts record
// updates to all of them.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu     sync.RWMutex
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case data := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// drop unregisters a client, giving up once the hub has stopped so a
// straggling read pump never blocks on the drained unregister channel.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// BroadcastRecord pushes a new global record to every connected client.
func (h *Hub) BroadcastRecord(levelIndex int, entry domain.RankingEntry) {
	msg := &Message{
		Type:      MessageTypeRecordUpdate,
		Level:     &levelIndex,
		Data:      entry,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal record update", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast buffer full, dropping record update")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
