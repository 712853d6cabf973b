package server

import (
	"strings"

	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"

	"github.com/gofiber/fiber/v2"
)

// SubmitContentRequest is the body of POST /api/content.
type SubmitContentRequest struct {
	Kind    models.Kind    `json:"kind"`
	Payload models.Payload `json:"payload"`
	// AutoApprove is honoured for admins only.
	AutoApprove   bool  `json:"auto_approve"`
	VisibleOnHome *bool `json:"visible_on_home"`
}

// ContentListResponse wraps a page of items.
type ContentListResponse struct {
	Items  []*models.ContentItem `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func listResponse(items []*models.ContentItem, page Pagination) ContentListResponse {
	if items == nil {
		items = []*models.ContentItem{}
	}
	return ContentListResponse{Items: items, Limit: page.Limit, Offset: page.Offset}
}

// GetHomeFeed handles GET /api/home
// @Summary Home feed
// @Description Approved items marked visible on home, newest first. No authentication required.
// @Tags content
// @Produce json
// @Param kind query string false "Content kind" Enums(category, city, story, gallery)
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ContentListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /home [get]
func (s *Server) GetHomeFeed(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return respondError(c, err)
	}
	page := parsePagination(c, defaultPaginationLimit)
	visible := true

	items, err := s.engine.List(c.UserContext(), models.ContentFilter{
		Kind:          kind,
		Status:        models.StatusApproved,
		VisibleOnHome: &visible,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(items, page))
}

// SubmitContent handles POST /api/content
// @Summary Submit content
// @Description Submits a category, city, story or gallery. Photographer stories and galleries start as drafts, everything else as pending. Admins may publish directly with auto_approve.
// @Tags content
// @Accept json
// @Produce json
// @Param request body SubmitContentRequest true "Kind and payload"
// @Success 201 {object} models.ContentItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /content [post]
func (s *Server) SubmitContent(c *fiber.Ctx) error {
	submitter, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}

	var req SubmitContentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.engine.Submit(c.UserContext(), moderation.SubmitInput{
		Kind:          models.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind)))),
		Payload:       req.Payload,
		Submitter:     submitter,
		AutoApprove:   req.AutoApprove,
		VisibleOnHome: req.VisibleOnHome,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetMyContent handles GET /api/content/mine
// @Summary List my content
// @Description Items submitted by the caller, newest first.
// @Tags content
// @Produce json
// @Param kind query string false "Content kind" Enums(category, city, story, gallery)
// @Param status query string false "Content status" Enums(draft, pending, approved, rejected)
// @Param q query string false "Free-text search over name, title and description"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ContentListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /content/mine [get]
func (s *Server) GetMyContent(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
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
		Kind:        kind,
		Status:      status,
		SubmitterID: caller.ID,
		SearchText:  c.Query("q"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(items, page))
}

// RequestReview handles POST /api/content/:id/request-review
// @Summary Request review
// @Description Moves the caller's draft to pending and alerts the admin inbox.
// @Tags content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} models.ContentItem
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /content/{id}/request-review [post]
func (s *Server) RequestReview(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	item, err := s.engine.RequestReview(c.UserContext(), c.Params("id"), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// GetContent handles GET /api/content/:id
// Items submitted by someone else are reported as missing to non-admins.
// @Summary Get content
// @Tags content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} models.ContentItem
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /content/{id} [get]
func (s *Server) GetContent(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id := c.Params("id")
	item, err := s.engine.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if caller.Role != models.RoleAdmin && item.SubmitterID != caller.ID {
		return respondError(c, models.NewNotFoundError("Content item", id))
	}
	return c.JSON(item)
}
