package server

import (
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"

	"github.com/gofiber/fiber/v2"
)

// ApproveRequest is the optional body of POST /api/admin/content/:id/approve.
type ApproveRequest struct {
	VisibleOnHome  *bool  `json:"visible_on_home"`
	ExpectedStatus string `json:"expected_status"`
}

// RejectRequest is the optional body of POST /api/admin/content/:id/reject.
type RejectRequest struct {
	ExpectedStatus string `json:"expected_status"`
}

// HomeVisibilityRequest is the body of POST /api/admin/content/:id/home.
type HomeVisibilityRequest struct {
	VisibleOnHome  *bool  `json:"visible_on_home"`
	ExpectedStatus string `json:"expected_status"`
}

// ListContent handles GET /api/admin/content
// @Summary List content for review
// @Description Lists items of every status, newest first, with optional filters.
// @Tags admin-content
// @Produce json
// @Param kind query string false "Content kind" Enums(category, city, story, gallery)
// @Param status query string false "Content status" Enums(draft, pending, approved, rejected)
// @Param q query string false "Free-text search over name, title and description"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ContentListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content [get]
func (s *Server) ListContent(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}
	status, err := parseStatus(c)
	if err != nil {
		return respondError(c, err)
	}
	page := parsePagination(c, defaultPaginationLimit)

	items, err := s.engine.List(c.UserContext(), models.ContentFilter{
		Kind:       kind,
		Status:     status,
		SearchText: c.Query("q"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(items, page))
}

// GetContentCounts handles GET /api/admin/content/counts
// @Summary Count content by status
// @Description Per-status counts for the review tabs. Served from cache when Redis is available.
// @Tags admin-content
// @Produce json
// @Param kind query string false "Content kind" Enums(category, city, story, gallery)
// @Success 200 {object} models.ContentCounts
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/counts [get]
func (s *Server) GetContentCounts(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}
	counts, err := s.engine.Counts(c.UserContext(), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

// ApproveContent handles POST /api/admin/content/:id/approve
// @Summary Approve content
// @Description Approves a pending or rejected item and notifies a photographer submitter.
// @Tags admin-content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param request body ApproveRequest false "Home visibility and expected status"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/{id}/approve [post]
func (s *Server) ApproveContent(c *fiber.Ctx) error {
	reviewer, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req ApproveRequest
	if err := bindOptional(c, &req); err != nil {
		return respondError(c, err)
	}
	expected, err := expectedStatus(req.ExpectedStatus)
	if err != nil {
		return respondError(c, err)
	}

	item, err := s.engine.Approve(c.UserContext(), moderation.ApproveInput{
		ID:             c.Params("id"),
		Reviewer:       reviewer,
		VisibleOnHome:  req.VisibleOnHome,
		ExpectedStatus: expected,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// RejectContent handles POST /api/admin/content/:id/reject
// @Summary Reject content
// @Description Rejects a pending or approved item, hides it from the home page and notifies a photographer submitter.
// @Tags admin-content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param request body RejectRequest false "Expected status"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/{id}/reject [post]
func (s *Server) RejectContent(c *fiber.Ctx) error {
	reviewer, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req RejectRequest
	if err := bindOptional(c, &req); err != nil {
		return respondError(c, err)
	}
	expected, err := expectedStatus(req.ExpectedStatus)
	if err != nil {
		return respondError(c, err)
	}

	item, err := s.engine.Reject(c.UserContext(), moderation.RejectInput{
		ID:             c.Params("id"),
		Reviewer:       reviewer,
		ExpectedStatus: expected,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// SetHomeVisibility handles POST /api/admin/content/:id/home
// @Summary Toggle home visibility
// @Description Shows or hides an approved item on the public home page.
// @Tags admin-content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param request body HomeVisibilityRequest true "Visibility"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/{id}/home [post]
func (s *Server) SetHomeVisibility(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req HomeVisibilityRequest
	if err := bindOptional(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.VisibleOnHome == nil {
		return respondError(c, models.NewValidationError("visible_on_home is required"))
	}
	expected, err := expectedStatus(req.ExpectedStatus)
	if err != nil {
		return respondError(c, err)
	}

	item, err := s.engine.ToggleHome(c.UserContext(), moderation.ToggleHomeInput{
		ID:             c.Params("id"),
		Actor:          caller,
		VisibleOnHome:  *req.VisibleOnHome,
		ExpectedStatus: expected,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteContent handles DELETE /api/admin/content/:id
// @Summary Delete content
// @Description Hard-deletes an item in any status.
// @Tags admin-content
// @Param id path string true "Content ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/content/{id} [delete]
func (s *Server) DeleteContent(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	if err := s.engine.Delete(c.UserContext(), c.Params("id"), caller); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
