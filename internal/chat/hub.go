package chat

import (
	"sync"

	"github.com/omochice/minechat/pkg/protocol"
)

// Client represents a listen channel subscriber with transport-agnostic connection.
type Client struct {
	Conn     Conn
	Outgoing chan []byte
}

// NewClient creates a subscriber with a bounded outgoing queue.
func NewClient(conn Conn, queue int) *Client {
	return &Client{Conn: conn, Outgoing: make(chan []byte, queue)}
}

// Hub manages all listen channel subscribers and handles broadcast.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// ClientCount returns number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast frames text as a protocol line and queues it for every client.
// Clients whose queue is full miss the line; it returns how many received it.
func (h *Hub) Broadcast(text string) int {
	frame := protocol.Line(text)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients {
		select {
		case client.Outgoing <- frame:
			delivered++
		default:
		}
	}
	return delivered
}
