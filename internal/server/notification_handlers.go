package server

import (
	"shutterdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NotificationListResponse wraps a page of notifications.
type NotificationListResponse struct {
	Items  []*models.Notification `json:"items"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

func notificationPage(items []*models.Notification, page Pagination) NotificationListResponse {
	if items == nil {
		items = []*models.Notification{}
	}
	return NotificationListResponse{Items: items, Limit: page.Limit, Offset: page.Offset}
}

// GetUnreadNotifications handles GET /api/notifications/unread
// This is the endpoint clients poll for new notices.
// @Summary List unread notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Maximum items" default(20)
// @Success 200 {object} NotificationListResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/unread [get]
func (s *Server) GetUnreadNotifications(c *fiber.Ctx) error {
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	page := parsePagination(c, defaultPaginationLimit)
	page.Offset = 0

	items, err := s.emitter.ListUnread(c.UserContext(), inbox, page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notificationPage(items, page))
}

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} NotificationListResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	page := parsePagination(c, defaultPaginationLimit)

	items, err := s.emitter.List(c.UserContext(), inbox, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notificationPage(items, page))
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	if err := s.emitter.MarkRead(c.UserContext(), inbox, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	n, err := s.emitter.MarkAllRead(c.UserContext(), inbox)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

// DeleteNotification handles DELETE /api/notifications/:id
// @Summary Delete notification
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	inbox, ok := s.inboxFor(c)
	if !ok {
		return unauthorized(c)
	}
	if err := s.emitter.Delete(c.UserContext(), inbox, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
