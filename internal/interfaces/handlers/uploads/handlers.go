package uploads

import (
	"errors"

	uploadsvc "pettie-backend/internal/application/uploads"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service             *uploadsvc.Service
	ListingImagesBucket string
	ProfilePhotosBucket string
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// ListingImage POST /api/v1/uploads/listing-image
func (h *Handlers) ListingImage(c *fiber.Ctx) error {
	return h.signedURL(c, h.ListingImagesBucket)
}

// ProfilePhoto POST /api/v1/uploads/profile-photo
func (h *Handlers) ProfilePhoto(c *fiber.Ctx) error {
	return h.signedURL(c, h.ProfilePhotosBucket)
}

func (h *Handlers) signedURL(c *fiber.Ctx, bucket string) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.GetSignedUploadURL(c.UserContext(), bucket, req.FileName)
	if err != nil {
		if errors.Is(err, uploadsvc.ErrStorageNotConfigured) {
			return response.Error(c, "File storage is not configured", fiber.StatusServiceUnavailable, nil)
		}
		log.Error().Err(err).Str("bucket", bucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
