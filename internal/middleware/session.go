package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pettie-backend/internal/infrastructure/sessions"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie flags.
type SessionConfig struct {
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "pettie.sid"
	SessionRedisPrefix = sessions.SessionPrefix
	SessionMaxAge      = 7 * 24 * time.Hour

	sessionDataLocal = "session_data"
	sessionIDLocal   = "session_id"
)

// SessionUser is the shape stored in the session under "user".
type SessionUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

// Session loads the session from Redis and saves it back after the handler runs.
// The id comes from the pettie.sid cookie or, for mobile clients, from an
// "Authorization: Bearer <id>" header.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := sessionIDFromRequest(c)

		data := &sessionData{}
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, data)
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("session: load failed")
			}
		}

		c.Locals(sessionDataLocal, data)
		c.Locals(sessionIDLocal, sessionID)
		if data.User != nil {
			c.Locals(userLocal, data.User)
		}

		if err := c.Next(); err != nil {
			return err
		}

		sid, _ := c.Locals(sessionIDLocal).(string)
		updated, _ := c.Locals(sessionDataLocal).(*sessionData)
		if sid != "" && updated != nil && updated.User != nil {
			b, _ := json.Marshal(updated)
			if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, SessionMaxAge).Err(); err != nil {
				log.Error().Err(err).Msg("session: save failed")
			}
		}
		return nil
	}
}

func sessionIDFromRequest(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	sessionID := c.Cookies(SessionCookieName)
	// "s:id" and "s:id.signature" both carry the id first
	if strings.HasPrefix(sessionID, "s:") {
		sessionID = strings.SplitN(sessionID[2:], ".", 2)[0]
	}
	return sessionID
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser stores the user in the session; it is persisted when the request ends.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals(sessionDataLocal).(*sessionData)
	if data == nil {
		data = &sessionData{}
	}
	data.User = &user
	c.Locals(sessionDataLocal, data)
	c.Locals(userLocal, &user)
}

// RegenerateSessionID creates a new session ID for this request.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	return newID
}

// DestroySession clears the session from Locals; callers remove the Redis key and cookie.
func DestroySession(c *fiber.Ctx) {
	c.Locals(sessionDataLocal, &sessionData{})
	c.Locals(userLocal, nil)
	c.Locals(sessionIDLocal, "")
}

// SessionCookie returns the cookie carrying sid.
func SessionCookie(cfg SessionConfig, sid string) *fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "s:" + sid,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

// ExpiredSessionCookie clears the cookie on the client.
func ExpiredSessionCookie(cfg SessionConfig) *fiber.Cookie {
	cookie := SessionCookie(cfg, "")
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}
