package user

import (
	usersvc "pettie-backend/internal/application/user"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers serves profile documents.
type Handlers struct {
	Service *usersvc.Service
}

// GetUser GET /api/v1/users/:id
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user ID", fiber.StatusBadRequest, nil)
	}
	return h.respondWithUser(c, id)
}

// Me GET /api/v1/users/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return h.respondWithUser(c, id)
}

// UpdateMe PATCH /api/v1/users/me; body keys: display_name, phone, location, photo_url.
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), id, fields)
	switch err {
	case nil:
	case usersvc.ErrUserNotFound:
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case usersvc.ErrNoUpdateFields, usersvc.ErrDisplayNameBlank, usersvc.ErrInvalidFieldValue:
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	default:
		log.Error().Err(err).Str("user_id", id.String()).Msg("users: update profile failed")
		return response.Error(c, "Failed to update profile", fiber.StatusInternalServerError, nil)
	}

	// keep the session's display name in step with the profile
	if su := middleware.GetUser(c); su != nil && su.DisplayName != u.DisplayName {
		updated := *su
		updated.DisplayName = u.DisplayName
		middleware.SetSessionUser(c, updated)
	}
	return response.Success(c, "Profile updated", fiber.Map{"user": u}, nil)
}

func (h *Handlers) respondWithUser(c *fiber.Ctx, id uuid.UUID) error {
	u, err := h.Service.GetUser(c.UserContext(), id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id.String()).Msg("users: get user failed")
		return response.Error(c, "Failed to load user", fiber.StatusInternalServerError, nil)
	}
	if u == nil {
		return response.Error(c, "User not found", fiber.StatusNotFound, nil)
	}
	return response.Success(c, "User fetched", fiber.Map{"user": u}, nil)
}
