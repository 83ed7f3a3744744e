package listings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	listsvc "pettie-backend/internal/application/listings"
	"pettie-backend/internal/application/uploads"
	"pettie-backend/internal/application/viewstate"
	"pettie-backend/internal/middleware"
	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxPhotos caps the files accepted in one multipart create.
const MaxPhotos = 10

// FavoriteChecker tells whether a user saved a listing.
type FavoriteChecker interface {
	IsFavorite(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
}

type Handlers struct {
	Service   *listsvc.Service
	Favorites FavoriteChecker // optional; "favorite" is false without it
}

// priceText accepts a JSON number or string; validation happens in the service.
type priceText string

func (p *priceText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*p = priceText(v)
		return nil
	}
	if s == "null" {
		return nil
	}
	*p = priceText(s)
	return nil
}

type createRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed"`
	Age         string    `json:"age"`
	Gender      string    `json:"gender"`
	Price       priceText `json:"price"`
	Currency    string    `json:"currency"`
	Location    string    `json:"location"`
	PhotoURLs   []string  `json:"photo_urls"`
}

type updateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Species     *string    `json:"species"`
	Breed       *string    `json:"breed"`
	Age         *string    `json:"age"`
	Gender      *string    `json:"gender"`
	Price       *priceText `json:"price"`
	Location    *string    `json:"location"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// Recent GET /api/v1/listings/recent?limit=
func (h *Handlers) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	listings, err := h.Service.GetRecentListings(c.UserContext(), limit)
	if err != nil {
		log.Error().Err(err).Msg("listings: recent failed")
		return response.Error(c, viewstate.MsgLoadListings, fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched", fiber.Map{"listings": listings}, fiber.Map{"limit": listsvc.NormalizeLimit(limit)})
}

// ByUser GET /api/v1/listings/user/:user_id
func (h *Handlers) ByUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user ID", fiber.StatusBadRequest, nil)
	}
	listings, err := h.Service.GetListingsByUser(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("listings: by user failed")
		return response.Error(c, viewstate.MsgLoadListings, fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched", fiber.Map{"listings": listings}, nil)
}

// Get GET /api/v1/listings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing ID", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.GetListing(c.UserContext(), id)
	if err != nil {
		log.Error().Err(err).Str("listing_id", id.String()).Msg("listings: get failed")
		return response.Error(c, viewstate.MsgLoadListing, fiber.StatusInternalServerError, nil)
	}
	if l == nil {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	favorite := false
	if userID, ok := middleware.CurrentUserID(c); ok && h.Favorites != nil {
		if favorite, err = h.Favorites.IsFavorite(c.UserContext(), userID, id); err != nil {
			log.Warn().Err(err).Str("listing_id", id.String()).Msg("listings: favorite lookup failed")
			favorite = false
		}
	}
	return response.Success(c, "Listing fetched", fiber.Map{"listing": l, "favorite": favorite}, nil)
}

// Create POST /api/v1/listings, JSON or multipart/form-data with "photos" files.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var seller *listsvc.Seller
	if u := middleware.GetUser(c); u != nil {
		if id, err := uuid.Parse(u.UserID); err == nil {
			seller = &listsvc.Seller{ID: id, DisplayName: u.DisplayName}
		}
	}

	var in listsvc.CreateListingInput
	var images []uploads.Image
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return formError(c, errors.New("Invalid form data"), fiber.StatusBadRequest)
		}
		in = inputFromForm(form)
		images, err = readImages(form.File["photos"])
		if err != nil {
			return formError(c, err, fiber.StatusBadRequest)
		}
	} else {
		var req createRequest
		_ = c.BodyParser(&req)
		in = listsvc.CreateListingInput{
			Title: req.Title, Description: req.Description, Species: req.Species,
			Breed: req.Breed, Age: req.Age, Gender: req.Gender, Price: string(req.Price),
			Currency: req.Currency, Location: req.Location, PhotoURLs: req.PhotoURLs,
		}
	}

	listing, err := h.Service.CreateListing(c.UserContext(), seller, in, images)
	if err != nil {
		return formError(c, err, statusFor(err))
	}
	return response.SuccessCreated(c, "Listing created successfully", fiber.Map{
		"listing": listing,
		"state":   viewstate.FormSuccess(),
	}, nil)
}

// Update PATCH /api/v1/listings/:id (owner only)
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, id, ok := actorAndListing(c)
	if !ok {
		return nil
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	in := listsvc.UpdateListingInput{
		Title: req.Title, Description: req.Description, Species: req.Species,
		Breed: req.Breed, Age: req.Age, Gender: req.Gender, Location: req.Location,
	}
	if req.Price != nil {
		p := string(*req.Price)
		in.Price = &p
	}
	l, err := h.Service.UpdateListing(c.UserContext(), actor, id, in)
	if err != nil {
		return formError(c, err, statusFor(err))
	}
	return response.Success(c, "Listing updated", fiber.Map{"listing": l, "state": viewstate.FormSuccess()}, nil)
}

// UpdateStatus PATCH /api/v1/listings/:id/status (owner only)
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	actor, id, ok := actorAndListing(c)
	if !ok {
		return nil
	}
	var req statusRequest
	_ = c.BodyParser(&req)
	l, err := h.Service.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return formError(c, err, statusFor(err))
	}
	return response.Success(c, "Listing status updated", fiber.Map{"listing": l, "state": viewstate.FormSuccess()}, nil)
}

func actorAndListing(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = response.Unauthorized(c, "Not authenticated")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = response.Error(c, "Invalid listing ID", fiber.StatusBadRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return actor, id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, listsvc.ErrRequiredFields), errors.Is(err, listsvc.ErrInvalidPrice),
		errors.Is(err, listsvc.ErrInvalidCurrency), errors.Is(err, listsvc.ErrInvalidStatus), errors.Is(err, listsvc.ErrNoUpdateFields):
		return fiber.StatusBadRequest
	case errors.Is(err, listsvc.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, listsvc.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, listsvc.ErrListingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, uploads.ErrStorageNotConfigured):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func formError(c *fiber.Ctx, err error, code int) error {
	msg := err.Error()
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("listings: request failed")
		msg = viewstate.MsgCreateListing
		if c.Method() == fiber.MethodPatch {
			msg = "Failed to update listing"
		}
	}
	return response.Error(c, msg, code, fiber.Map{"state": viewstate.FormError(msg)})
}

func inputFromForm(form *multipart.Form) listsvc.CreateListingInput {
	get := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return listsvc.CreateListingInput{
		Title: get("title"), Description: get("description"), Species: get("species"),
		Breed: get("breed"), Age: get("age"), Gender: get("gender"), Price: get("price"),
		Currency: get("currency"), Location: get("location"), PhotoURLs: form.Value["photo_urls"],
	}
}

func readImages(files []*multipart.FileHeader) ([]uploads.Image, error) {
	if len(files) > MaxPhotos {
		return nil, errors.New("Too many photos (max " + strconv.Itoa(MaxPhotos) + ")")
	}
	images := make([]uploads.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("Could not read photo " + fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.New("Could not read photo " + fh.Filename)
		}
		images = append(images, uploads.Image{ContentType: fh.Header.Get("Content-Type"), Data: data})
	}
	return images, nil
}
