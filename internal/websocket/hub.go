package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fuboru/panel-backend/internal/session"
	"github.com/fuboru/panel-backend/pkg/logger"
)

const sendBuffer = 16

// Client is one websocket connection of a signed-in operator.
type Client struct {
	Hub       *Hub
	Conn      *Conn
	UserID    string
	SessionID string
	Send      chan []byte
}

// NewClient prepares a client for registration.
func NewClient(hub *Hub, conn *Conn, userID, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		SessionID: sessionID,
		Send:      make(chan []byte, sendBuffer),
	}
}

// Hub fans auth events out to the connections of the affected user.
type Hub struct {
	// UserID -> connections (one per device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and events until ctx is done or the event
// channel closes. Remaining connections are closed on return.
func (h *Hub) Run(ctx context.Context, events <-chan session.Event) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			total := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			removed := h.remove(client)
			remaining := len(h.clients[client.UserID])
			h.mu.Unlock()
			if removed {
				logger.Info("WebSocket client unregistered", map[string]interface{}{
					"user_id":            client.UserID,
					"remaining_sessions": remaining,
				})
			}

		case event, ok := <-events:
			if !ok {
				return
			}
			h.deliver(event)
		}
	}
}

// remove drops client and closes its send channel. Caller holds h.mu.
func (h *Hub) remove(client *Client) bool {
	list, ok := h.clients[client.UserID]
	if !ok {
		return false
	}

	found := false
	kept := make([]*Client, 0, len(list))
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return false
	}

	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)
	return true
}

func (h *Hub) deliver(event session.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal auth event", err, nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range append([]*Client(nil), h.clients[event.UserID]...) {
		select {
		case client.Send <- data:
		default:
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": event.UserID,
			})
			h.remove(client)
			continue
		}

		// The event is flushed before the write pump sees the closed channel.
		if ends(event, client) {
			h.remove(client)
		}
	}
}

// ends reports whether event terminates the client's session.
func ends(event session.Event, client *Client) bool {
	switch event.Type {
	case session.EventUserDeleted:
		return true
	case session.EventSignedOut:
		return event.SessionID == client.SessionID
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connections returns the number of open connections for a user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
