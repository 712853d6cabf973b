package moderation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"shutterdesk/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("imageref", isImageRef)
	return v
}

// isImageRef accepts an absolute http(s) URL or a root-relative path such as
// the ones returned by the media upload endpoint.
func isImageRef(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "" {
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && u.Path != ""
}

// ValidatePayload checks the fields kind requires and the format of any URLs.
func ValidatePayload(kind models.Kind, p models.Payload) error {
	if !kind.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown kind %q", kind))
	}

	var missing []string
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	switch kind {
	case models.KindCategory, models.KindCity:
		require("name", p.Name)
		require("image", p.Image)
	case models.KindStory:
		require("title", p.Title)
	case models.KindGallery:
		require("name", p.Name)
	}
	if len(missing) > 0 {
		return models.NewValidationError(fmt.Sprintf("%s requires %s", kind, strings.Join(missing, ", ")))
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.NewValidationError(fmt.Sprintf("%s must be a valid URL", jsonField(verrs[0])))
		}
		return models.NewValidationError(err.Error())
	}
	return nil
}

func jsonField(fe validator.FieldError) string {
	switch fe.StructField() {
	case "CoverImage":
		return "cover_image"
	case "Images":
		return "images"
	}
	// Images[2] and friends report the slice element namespace.
	if strings.HasPrefix(fe.Field(), "Images") {
		return "images"
	}
	return strings.ToLower(fe.Field())
}

func normalizePayload(p models.Payload) models.Payload {
	p.Name = strings.TrimSpace(p.Name)
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Location = strings.TrimSpace(p.Location)
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}
