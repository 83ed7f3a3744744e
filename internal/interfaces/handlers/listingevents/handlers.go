package listingevents

import (
	lesvc "pettie-backend/internal/application/listingevents"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *lesvc.Service
}

// GetListingEvents GET /api/v1/listings/:id/events (seller only)
func (h *Handlers) GetListingEvents(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing ID", fiber.StatusBadRequest, nil)
	}

	events, err := h.Service.GetListingEvents(c.UserContext(), listingID, actor)
	switch err {
	case nil:
		return response.Success(c, "Listing events fetched", fiber.Map{"events": events}, nil)
	case lesvc.ErrListingNotFound:
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case lesvc.ErrForbidden:
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	}
	log.Error().Err(err).Str("listing_id", listingID.String()).Msg("listingevents: fetch failed")
	return response.Error(c, "Failed to fetch listing events", fiber.StatusInternalServerError, nil)
}
