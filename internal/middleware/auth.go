package middleware

import (
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth rejects requests without a session user.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Not authenticated")
		}
		return c.Next()
	}
}

// GetUser returns the session user, or nil when not signed in.
func GetUser(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(userLocal).(*SessionUser)
	return u
}

// CurrentUserID returns the signed-in user's id.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	u := GetUser(c)
	if u == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
