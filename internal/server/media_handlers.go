package server

import (
	"io"

	"shutterdesk/internal/media"
	"shutterdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/media
// @Summary Upload image
// @Description Stores an image as a JPEG master plus a WebP copy and returns URLs usable in a content payload.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file (JPEG, PNG, GIF or WebP)"
// @Success 201 {object} media.Upload
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	caller, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.media.Upload(c.UserContext(), media.UploadInput{
		UploaderID:  caller.ID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(uploaded)
}

// ServeMedia handles GET <media base>/:hash/:file
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	path, err := s.media.ResolvePath(c.Params("hash"), c.Params("file"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
