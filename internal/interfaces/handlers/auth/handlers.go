package auth

import (
	"context"

	authsvc "pettie-backend/internal/application/auth"
	"pettie-backend/internal/application/viewstate"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/infrastructure/sessions"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type confirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login: check credentials, start a session, set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	_ = c.BodyParser(&req)

	u, err := h.Service.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return formError(c, err, viewstate.MsgLoginFailed)
	}
	token, err := h.startSession(c, u)
	if err != nil {
		return formError(c, err, viewstate.MsgLoginFailed)
	}
	return response.Success(c, "Login successful", fiber.Map{
		"user":  u,
		"token": token,
		"state": viewstate.FormSuccess(),
	}, nil)
}

// Register POST /api/v1/auth/register: create the account and sign it in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req authsvc.RegisterInput
	_ = c.BodyParser(&req)

	u, err := h.Service.Register(c.UserContext(), req)
	if err != nil {
		return formError(c, err, viewstate.MsgRegisterFail)
	}
	token, err := h.startSession(c, u)
	if err != nil {
		return formError(c, err, viewstate.MsgRegisterFail)
	}
	return response.SuccessCreated(c, "Registration successful", fiber.Map{
		"user":  u,
		"token": token,
		"state": viewstate.FormSuccess(),
	}, nil)
}

// Me GET /api/v1/auth/me returns the session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	u := middleware.GetUser(c)
	if u == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": u}, nil)
}

// Logout DELETE /api/v1/auth/logout drops the session from Redis and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sid := middleware.GetSessionID(c)
	userID := ""
	if u := middleware.GetUser(c); u != nil {
		userID = u.UserID
	}
	sessions.Untrack(context.Background(), h.Rdb, userID, sid)
	middleware.DestroySession(c)
	c.Cookie(middleware.ExpiredSessionCookie(h.Config))
	return response.Success(c, "Logged out successfully", nil, nil)
}

// ResetPassword POST /api/v1/auth/reset-password emails a reset link.
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	_ = c.BodyParser(&req)
	if err := h.Service.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return formError(c, err, viewstate.MsgResetFailed)
	}
	return response.Success(c, "Password reset email sent", fiber.Map{"state": viewstate.FormSuccess()}, nil)
}

// ConfirmReset POST /api/v1/auth/confirm-reset sets the new password from a reset link.
func (h *Handlers) ConfirmReset(c *fiber.Ctx) error {
	var req confirmResetRequest
	_ = c.BodyParser(&req)
	if err := h.Service.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return formError(c, err, viewstate.MsgResetFailed)
	}
	return response.Success(c, "Password updated", fiber.Map{"state": viewstate.FormSuccess()}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, u *domain.User) (string, error) {
	if prev := middleware.GetSessionID(c); prev != "" {
		prevUser := ""
		if pu := middleware.GetUser(c); pu != nil {
			prevUser = pu.UserID
		}
		sessions.Untrack(context.Background(), h.Rdb, prevUser, prev)
	}
	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:      u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
	})
	if err := sessions.Track(context.Background(), h.Rdb, u.ID.String(), sid); err != nil {
		return "", err
	}
	c.Cookie(middleware.SessionCookie(h.Config, sid))
	return sid, nil
}

func formError(c *fiber.Ctx, err error, fallback string) error {
	msg := err.Error()
	code := fiber.StatusBadRequest
	switch err {
	case authsvc.ErrUserNotFound:
		code = fiber.StatusNotFound
	case authsvc.ErrWrongPassword, authsvc.ErrNotAuthenticated:
		code = fiber.StatusUnauthorized
	case authsvc.ErrEmailInUse:
		code = fiber.StatusConflict
	default:
		if !authsvc.IsValidationError(err) {
			log.Error().Err(err).Str("path", c.Path()).Msg("auth: request failed")
			code = fiber.StatusInternalServerError
			msg = fallback
		}
	}
	return response.Error(c, msg, code, fiber.Map{"state": viewstate.FormError(msg)})
}
