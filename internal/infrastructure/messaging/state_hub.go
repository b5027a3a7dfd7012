// Package messaging fans rotation state out to connected dashboard clients
// over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

// StateClient represents a single connected dashboard client.
type StateClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// NewStateClient wraps an upgraded connection with a buffered send queue.
func NewStateClient(conn *websocket.Conn) *StateClient {
	return &StateClient{Conn: conn, Send: make(chan []byte, 16)}
}

// StateHub manages all connected state clients and broadcasts tick events.
// Slow clients never block the rotation loop: a client whose send buffer is
// full simply misses that tick.
type StateHub struct {
	clients    map[*StateClient]bool
	register   chan *StateClient
	unregister chan *StateClient
	broadcast  chan []byte
	logger     *logging.ChanneledLogger

	mu        sync.RWMutex
	lastEvent []byte
}

// NewStateHub creates a new hub instance.
func NewStateHub(logger *logging.ChanneledLogger) *StateHub {
	return &StateHub{
		clients:    make(map[*StateClient]bool),
		register:   make(chan *StateClient),
		unregister: make(chan *StateClient),
		broadcast:  make(chan []byte, 16),
		logger:     logger,
	}
}

// Run starts the hub's main loop. This should be run as a goroutine; it
// exits when the context is canceled, closing every client.
func (h *StateHub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			last := h.lastEvent
			h.mu.Unlock()

			// A fresh client gets the most recent tick right away instead
			// of a blank panel until the next one.
			if last != nil {
				select {
				case client.Send <- last:
				default:
				}
			}
			h.logger.Socket().Debug("State client registered", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Socket().Debug("State client unregistered", "clients", count)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.logger.Socket().Warn("State client send buffer full, tick dropped")
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Socket().Info("State hub stopped")
			return
		}
	}
}

// Register queues a client for registration.
func (h *StateHub) Register(client *StateClient) {
	h.register <- client
}

// Unregister queues a client for unregistration.
func (h *StateHub) Unregister(client *StateClient) {
	h.unregister <- client
}

// Publish broadcasts a tick event to every client. Events that fail to
// marshal are dropped; a full broadcast queue skips the event, which the
// next tick supersedes anyway.
func (h *StateHub) Publish(event any) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Socket().Error("Failed to marshal state event", "error", err.Error())
		return
	}

	h.mu.Lock()
	h.lastEvent = message
	h.mu.Unlock()

	select {
	case h.broadcast <- message:
	default:
		h.logger.Socket().Debug("State broadcast queue full, tick skipped")
	}
}

// ClientCount reports connected clients for the status endpoint.
func (h *StateHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LastEvent returns the most recently published tick, for new connections
// and the status endpoint.
func (h *StateHub) LastEvent() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastEvent
}
