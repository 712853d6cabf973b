// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shutterdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Fiber locals populated by Auth.Required.
const (
	LocalUserID   = "userID"
	LocalUserRole = "userRole"
	LocalUserName = "userName"
)

// Identity is the caller supplied by the session provider.
type Identity struct {
	UserID string
	Role   models.Role
	Name   string
}

// IsAdmin reports whether the caller may run admin-only operations.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Auth verifies session tokens issued by the identity provider.
type Auth struct {
	secret   []byte
	issuer   string
	audience string
}

// NewAuth creates an Auth that accepts HMAC tokens with the given issuer and audience.
func NewAuth(secret, issuer, audience string) *Auth {
	return &Auth{secret: []byte(secret), issuer: issuer, audience: audience}
}

// IssueToken signs a token for id. Used by the development token tool and tests.
func (a *Auth) IssueToken(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": string(id.Role),
		"name": id.Name,
		"iss":  a.issuer,
		"aud":  a.audience,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates tokenString and returns the identity it carries.
func (a *Auth) Parse(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(sub) == "" || strings.HasPrefix(sub, models.AdminInboxPrefix) {
		return Identity{}, models.NewUnauthorizedError("Invalid subject claim")
	}
	role, _ := claims["role"].(string)
	if !models.Role(role).Valid() {
		return Identity{}, models.NewUnauthorizedError("Invalid role claim")
	}
	name, _ := claims["name"].(string)

	return Identity{UserID: sub, Role: models.Role(role), Name: name}, nil
}

// Required is a middleware that enforces authentication for protected routes.
func (a *Auth) Required() fiber.Handler {
	return a.authenticate(false)
}

// RequiredStream authenticates websocket upgrades. Browsers cannot set headers
// on an upgrade request, so the token may also come from ?access_token=.
func (a *Auth) RequiredStream() fiber.Handler {
	return a.authenticate(true)
}

func (a *Auth) authenticate(allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("access_token")
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		id, err := a.Parse(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		SetIdentity(c, id)
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if header == "" || len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AdminRequired rejects non-admin callers with 403.
// Must be placed after Required so that the identity is available in locals.
func (a *Auth) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok || !id.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}
		return c.Next()
	}
}

// SetIdentity stores id in locals and in the user context for logging.
func SetIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(LocalUserID, id.UserID)
	c.Locals(LocalUserRole, id.Role)
	c.Locals(LocalUserName, id.Name)
	ctx := context.WithValue(c.UserContext(), UserIDKey, id.UserID)
	ctx = context.WithValue(ctx, RoleKey, string(id.Role))
	c.SetUserContext(ctx)
}

// CurrentIdentity returns the identity stored by Required.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	uid, ok := c.Locals(LocalUserID).(string)
	if !ok || uid == "" {
		return Identity{}, false
	}
	role, _ := c.Locals(LocalUserRole).(models.Role)
	name, _ := c.Locals(LocalUserName).(string)
	return Identity{UserID: uid, Role: role, Name: name}, true
}
