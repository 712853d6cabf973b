package notifications

import (
	"log"
	"time"

	"shutterdesk/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The stream is server to client only; peers send nothing but control frames.
	maxMessageSize = 512

	sendBuffer = 64
)

// Client is one stream connection attached to an inbox.
type Client struct {
	hub *Hub

	// Conn is nil for clients registered without a socket.
	Conn *websocket.Conn

	// Send is the buffered queue of outbound messages.
	Send chan []byte

	Inbox string
}

func newClient(hub *Hub, conn *websocket.Conn, inbox string) *Client {
	return &Client{
		hub:   hub,
		Conn:  conn,
		Inbox: inbox,
		Send:  make(chan []byte, sendBuffer),
	}
}

// ReadPump drains control frames until the peer goes away, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("notification stream read error (inbox %s): %v", c.Inbox, err)
			}
			return
		}
	}
}

// WritePump writes queued messages and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. A full buffer drops it and, when
// possible, tells the client to re-fetch its inbox.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.LiveDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.LiveDrops.WithLabelValues("full").Inc()
		select {
		case c.Send <- []byte(`{"type":"resync"}`):
		default:
		}
	}
}
