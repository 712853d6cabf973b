package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"shutterdesk/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerInbox = 8
	maxTotalConns    = 5000
)

// Errors returned by Hub.Register.
var (
	ErrHubFull   = errors.New("server connection limit reached")
	ErrInboxFull = errors.New("inbox connection limit reached")
)

// Hub maps inbox ids to their open stream connections. Admins share one
// inbox, so every admin tab receives admin notices.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Client]struct{}
	total int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Register attaches conn to inbox. conn may be nil in tests.
func (h *Hub) Register(inbox string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrHubFull
	}
	m, ok := h.conns[inbox]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[inbox] = m
	}
	if len(m) >= maxConnsPerInbox {
		return nil, ErrInboxFull
	}

	client := newClient(h, conn, inbox)
	m[client] = struct{}{}
	h.total++
	observability.LiveConnections.Inc()
	return client, nil
}

// Unregister detaches client and closes its send queue. Repeated calls are no-ops.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.Inbox]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.Inbox)
	}
	h.total--
	observability.LiveConnections.Dec()
	close(client.Send)
}

// Connected returns how many connections inbox has open.
func (h *Hub) Connected(inbox string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[inbox])
}

// Broadcast sends message to every connection of inbox.
func (h *Hub) Broadcast(inbox string, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[inbox] {
		c.TrySend(data)
	}
}

// StartWiring subscribes n to every recipient channel and forwards each
// message to the matching inbox.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		inbox, ok := RecipientFromChannel(channel)
		if !ok {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		h.Broadcast(inbox, payload)
	})
}

// Shutdown closes every send queue; each WritePump then sends a close frame
// and drops its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.LiveConnections.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.total = 0
	return nil
}
