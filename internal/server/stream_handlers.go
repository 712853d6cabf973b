package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localInbox = "inbox"

// StartNotificationStream forwards notifications published to Redis to the
// open stream connections until Shutdown. Without Redis it does nothing and
// clients keep polling the unread endpoint.
func (s *Server) StartNotificationStream(ctx context.Context) error {
	if s.runtime.Notifier == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := s.hub.StartWiring(ctx, s.runtime.Notifier); err != nil {
		cancel()
		return err
	}
	s.streamCancel = cancel
	return nil
}

// NotificationStreamUpgrade handles GET /api/notifications/ws
// It resolves the caller's inbox before the upgrade.
// @Summary Stream notifications
// @Description Upgrades to a websocket that pushes each new notification of the caller's inbox as JSON. Pass the session token as access_token.
// @Tags notifications
// @Param access_token query string false "Session token when no Authorization header can be sent"
// @Success 101 {object} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/ws [get]
func (s *Server) NotificationStreamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	c.Locals(localInbox, inbox)
	return c.Next()
}

// NotificationStream attaches an upgraded connection to the hub.
func (s *Server) NotificationStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		inbox, _ := conn.Locals(localInbox).(string)
		if inbox == "" {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(inbox, conn)
		if err != nil {
			log.Printf("notification stream: register inbox %s: %v", inbox, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.TrySend([]byte(`{"type":"connected"}`))
		go client.WritePump()
		client.ReadPump()
	})
}
