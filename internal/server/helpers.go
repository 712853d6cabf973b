package server

import (
	"strings"

	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// respondError writes err with the status its code maps to. Errors without
// a code are logged and reported as a bare internal error.
func respondError(c *fiber.Ctx, err error) error {
	if models.ErrorCode(err) == "" {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(nil))
	}
	return models.RespondWithError(c, models.HTTPStatus(err), err)
}

// actor converts the authenticated identity into the engine's caller type.
func actor(c *fiber.Ctx) (moderation.Actor, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return moderation.Actor{}, false
	}
	return moderation.Actor{ID: id.UserID, Name: id.Name, Role: id.Role}, true
}

func unauthorized(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError("Authorization required"))
}

// inboxFor maps a caller to the recipient id its notifications are stored under.
// Every admin shares the configured admin inbox.
func (s *Server) inboxFor(c *fiber.Ctx) (string, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return "", false
	}
	if id.IsAdmin() {
		return models.AdminInbox(s.config.AdminInboxID), true
	}
	return id.UserID, true
}

// parseKind reads the optional kind query parameter.
func parseKind(c *fiber.Ctx) (models.Kind, error) {
	kind := models.Kind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))
	if kind != "" && !kind.Valid() {
		return "", models.NewValidationError("unknown kind")
	}
	return kind, nil
}

// parseStatus reads the optional status query parameter.
func parseStatus(c *fiber.Ctx) (models.Status, error) {
	status := models.Status(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		return "", models.NewValidationError("unknown status")
	}
	return status, nil
}

// expectedStatus validates an optional expected_status body field.
func expectedStatus(raw string) (models.Status, error) {
	status := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	if status != "" && !status.Valid() {
		return "", models.NewValidationError("unknown expected_status")
	}
	return status, nil
}

// bindOptional parses a JSON body when one was sent. Empty bodies leave out untouched.
func bindOptional(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}
