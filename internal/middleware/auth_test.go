package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shutterdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestAuth() *Auth {
	return NewAuth(testSecret, "shutterdesk-api", "shutterdesk-admin")
}

func TestAuthRequired(t *testing.T) {
	auth := newTestAuth()
	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.JSON(fiber.Map{"user_id": id.UserID, "role": id.Role, "name": id.Name})
	})

	valid, err := auth.IssueToken(Identity{UserID: "ph-7", Role: models.RolePhotographer, Name: "Ana"}, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueToken(Identity{UserID: "ph-7", Role: models.RolePhotographer}, -time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewAuth(testSecret, "someone-else", "shutterdesk-admin").
		IssueToken(Identity{UserID: "ph-7", Role: models.RolePhotographer}, time.Hour)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ph-7",
		"role": "superuser",
		"iss":  "shutterdesk-api",
		"aud":  "shutterdesk-admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	inboxSubject, err := auth.IssueToken(Identity{UserID: models.AdminInbox("admin"), Role: models.RolePhotographer}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized},
		{"Wrong Issuer", "Bearer " + otherIssuer, http.StatusUnauthorized},
		{"Unknown Role", "Bearer " + badRole, http.StatusUnauthorized},
		{"Reserved Subject", "Bearer " + inboxSubject, http.StatusUnauthorized},
		{"Garbage Token", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "ph-7", body["user_id"])
				assert.Equal(t, "photographer", body["role"])
				assert.Equal(t, "Ana", body["name"])
			}
		})
	}
}

func TestRequiredStreamAcceptsQueryToken(t *testing.T) {
	auth := newTestAuth()
	app := fiber.New()
	app.Get("/stream", auth.RequiredStream(), func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.SendString(id.UserID)
	})
	app.Get("/plain", auth.Required(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	token, err := auth.IssueToken(Identity{UserID: "ph-7", Role: models.RolePhotographer}, time.Hour)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream?access_token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stream?access_token=garbage", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/plain?access_token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "query tokens are only honoured on stream routes")
}

func TestAdminRequired(t *testing.T) {
	auth := newTestAuth()
	app := fiber.New()
	app.Get("/admin", auth.Required(), auth.AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin, err := auth.IssueToken(Identity{UserID: "admin-1", Role: models.RoleAdmin, Name: "Admin"}, time.Hour)
	require.NoError(t, err)
	photographer, err := auth.IssueToken(Identity{UserID: "ph-1", Role: models.RolePhotographer}, time.Hour)
	require.NoError(t, err)

	for token, want := range map[string]int{
		admin:        http.StatusNoContent,
		photographer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode)
	}
}
