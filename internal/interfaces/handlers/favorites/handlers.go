package favorites

import (
	favsvc "pettie-backend/internal/application/favorites"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *favsvc.Service
}

// List GET /api/v1/favorites
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	favs, err := h.Service.List(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("favorites: list failed")
		return response.Error(c, "Failed to load favorites", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Favorites fetched", fiber.Map{"favorites": favs}, nil)
}

// Add POST /api/v1/favorites/:listing_id
func (h *Handlers) Add(c *fiber.Ctx) error {
	userID, listingID, ok := parse(c)
	if !ok {
		return nil
	}
	if err := h.Service.Add(c.UserContext(), userID, listingID); err != nil {
		if err == favsvc.ErrListingNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		log.Error().Err(err).Str("listing_id", listingID.String()).Msg("favorites: add failed")
		return response.Error(c, "Failed to save listing", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listing saved", fiber.Map{"listing_id": listingID}, nil)
}

// Remove DELETE /api/v1/favorites/:listing_id
func (h *Handlers) Remove(c *fiber.Ctx) error {
	userID, listingID, ok := parse(c)
	if !ok {
		return nil
	}
	if err := h.Service.Remove(c.UserContext(), userID, listingID); err != nil {
		log.Error().Err(err).Str("listing_id", listingID.String()).Msg("favorites: remove failed")
		return response.Error(c, "Failed to remove listing", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listing removed", fiber.Map{"listing_id": listingID}, nil)
}

func parse(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = response.Unauthorized(c, "Not authenticated")
		return uuid.Nil, uuid.Nil, false
	}
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		_ = response.Error(c, "Invalid listing ID", fiber.StatusBadRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, listingID, true
}
