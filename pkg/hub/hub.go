// Package hub fans websocket frames out to connected clients.
// Each hub owns a set of clients; one goroutine per client writes to its
// connection so no two goroutines ever write to the same socket.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Frame is one outbound websocket message. Binary frames carry camera JPEGs;
// everything else is JSON text.
type Frame struct {
	Binary  bool
	Payload []byte
}

// Text wraps pre-encoded JSON.
func Text(payload []byte) Frame {
	return Frame{Payload: payload}
}

// Sender is the hub's view of a connected client.
type Sender interface {
	// Queue returns the client's outbound channel. The hub closes it when
	// the client is removed.
	Queue() chan Frame
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[Sender]bool
	mu      sync.RWMutex

	broadcast  chan Frame
	register   chan Sender
	unregister chan Sender

	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[Sender]bool),
		broadcast:  make(chan Frame, 256),
		register:   make(chan Sender),
		unregister: make(chan Sender),
	}
}

// Run runs the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Queue())
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Queue())
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Queue() <- message:
				default:
					// Client's buffer is full; drop it rather than stall everyone
					close(client.Queue())
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. It blocks until the hub accepts it or ctx ends.
func (h *Hub) Register(ctx context.Context, client Sender) bool {
	select {
	case h.register <- client:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unregister removes a client. It blocks until the hub accepts it or ctx ends.
func (h *Hub) Unregister(ctx context.Context, client Sender) {
	select {
	case h.unregister <- client:
	case <-ctx.Done():
	}
}

// Broadcast sends a frame to all connected clients without blocking.
// Frames are dropped when the broadcast queue is full.
func (h *Hub) Broadcast(msg Frame) {
	select {
	case h.broadcast <- msg:
	default:
		if h.dropped.Add(1)%100 == 1 {
			h.logger.Warn("broadcast queue full, dropping messages", "dropped", h.dropped.Load())
		}
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Text(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Frame{Binary: true, Payload: data})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}
