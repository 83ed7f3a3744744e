package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pettie-backend/internal/application/uploads"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/pkg/validation"
	"pettie-backend/internal/realtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 100
)

var (
	ErrRequiredFields   = errors.New("Please fill in all required fields")
	ErrInvalidPrice     = errors.New("Please enter a valid price")
	ErrInvalidCurrency  = errors.New("Currency must be a 3-letter code")
	ErrNotAuthenticated = errors.New("Not authenticated")
	ErrNotOwner         = errors.New("You can only modify your own listings")
	ErrListingNotFound  = errors.New("Listing not found")
	ErrInvalidStatus    = errors.New("Status must be one of AVAILABLE, RESERVED, SOLD")
	ErrNoUpdateFields   = errors.New("No valid update fields provided")
)

// ImageUploader stores listing photos and returns their public URLs in order.
type ImageUploader interface {
	UploadImages(ctx context.Context, images []uploads.Image) ([]string, error)
}

// Service owns listing reads and owner mutations. Every mutation publishes a change.
type Service struct {
	DB        *gorm.DB
	Uploader  ImageUploader
	Publisher realtime.Publisher
}

// Seller is the signed-in user creating or editing a listing.
type Seller struct {
	ID          uuid.UUID
	DisplayName string
}

// CreateListingInput is the sell form. Price is the raw text the user typed.
type CreateListingInput struct {
	Title       string
	Description string
	Species     string
	Breed       string
	Age         string
	Gender      string
	Price       string
	Currency    string
	Location    string
	PhotoURLs   []string
}

// UpdateListingInput holds optional edits; nil fields are left unchanged.
type UpdateListingInput struct {
	Title       *string
	Description *string
	Species     *string
	Breed       *string
	Age         *string
	Gender      *string
	Price       *string
	Location    *string
}

// CreateListing validates the form, uploads the images one by one and stores the
// listing together with its CREATED event.
func (s *Service) CreateListing(ctx context.Context, seller *Seller, in CreateListingInput, images []uploads.Image) (*domain.PetListing, error) {
	if validation.AnyBlank(in.Title, in.Species, in.Price, in.Location) {
		return nil, ErrRequiredFields
	}
	price, ok := validation.ParsePrice(in.Price)
	if !ok {
		return nil, ErrInvalidPrice
	}
	currency, ok := validation.NormalizeCurrency(in.Currency)
	if !ok {
		return nil, ErrInvalidCurrency
	}
	if seller == nil || seller.ID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	photoURLs := append([]string{}, in.PhotoURLs...)
	if len(images) > 0 {
		if s.Uploader == nil {
			return nil, uploads.ErrStorageNotConfigured
		}
		uploaded, err := s.Uploader.UploadImages(ctx, images)
		if err != nil {
			return nil, err
		}
		photoURLs = append(photoURLs, uploaded...)
	}

	now := time.Now().UnixMilli()
	listing := &domain.PetListing{
		SellerID:    seller.ID,
		SellerName:  seller.DisplayName,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Species:     strings.TrimSpace(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Age:         strings.TrimSpace(in.Age),
		Gender:      strings.TrimSpace(in.Gender),
		Price:       price,
		Currency:    currency,
		Location:    strings.TrimSpace(in.Location),
		PhotoURLs:   datatypes.JSONSlice[string](photoURLs),
		Status:      domain.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("Failed to create listing: %v", err)
		}
		return createEvent(tx, listing.ID, seller.ID, domain.EventCreated, map[string]interface{}{
			"price":    listing.Price,
			"currency": listing.Currency,
			"photos":   len(listing.PhotoURLs),
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, listing)
	return listing, nil
}

// NormalizeLimit clamps a requested page size to (0, MaxRecentLimit], defaulting to DefaultRecentLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// GetRecentListings returns the newest listings first.
func (s *Service) GetRecentListings(ctx context.Context, limit int) ([]domain.PetListing, error) {
	listings := []domain.PetListing{}
	err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(NormalizeLimit(limit)).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %v", err)
	}
	return listings, nil
}

// GetListingsByUser returns a seller's listings, newest first.
func (s *Service) GetListingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PetListing, error) {
	listings := []domain.PetListing{}
	err := s.DB.WithContext(ctx).Where("seller_id = ?", userID).Order("created_at DESC").Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %v", err)
	}
	return listings, nil
}

// GetListing returns (nil, nil) when the listing does not exist.
func (s *Service) GetListing(ctx context.Context, id uuid.UUID) (*domain.PetListing, error) {
	var l domain.PetListing
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListing edits text fields and price of the caller's own listing.
func (s *Service) UpdateListing(ctx context.Context, actor uuid.UUID, id uuid.UUID, in UpdateListingInput) (*domain.PetListing, error) {
	upd := map[string]interface{}{}
	required := map[string]*string{"title": in.Title, "species": in.Species, "location": in.Location}
	for col, v := range required {
		if v == nil {
			continue
		}
		if validation.IsBlank(*v) {
			return nil, ErrRequiredFields
		}
		upd[col] = strings.TrimSpace(*v)
	}
	optional := map[string]*string{"description": in.Description, "breed": in.Breed, "age": in.Age, "gender": in.Gender}
	for col, v := range optional {
		if v != nil {
			upd[col] = strings.TrimSpace(*v)
		}
	}
	if in.Price != nil {
		price, ok := validation.ParsePrice(*in.Price)
		if !ok {
			return nil, ErrInvalidPrice
		}
		upd["price"] = price
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}
	changed := make(map[string]interface{}, len(upd))
	for k, v := range upd {
		changed[k] = v
	}
	return s.mutate(ctx, actor, id, upd, domain.EventUpdated, changed)
}

// UpdateStatus moves the caller's listing between AVAILABLE, RESERVED and SOLD.
func (s *Service) UpdateStatus(ctx context.Context, actor uuid.UUID, id uuid.UUID, status string) (*domain.PetListing, error) {
	st, ok := domain.ParseListingStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	return s.mutate(ctx, actor, id, map[string]interface{}{"status": string(st)}, domain.EventStatusChanged, map[string]interface{}{"status": st})
}

func (s *Service) mutate(ctx context.Context, actor, id uuid.UUID, upd map[string]interface{}, eventType string, eventData map[string]interface{}) (*domain.PetListing, error) {
	if actor == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	var listing domain.PetListing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if listing.SellerID != actor {
			return ErrNotOwner
		}
		if eventType == domain.EventStatusChanged {
			eventData["from"] = listing.Status
		}
		upd["updated_at"] = time.Now().UnixMilli()
		if err := tx.Model(&domain.PetListing{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return fmt.Errorf("Failed to update listing: %v", err)
		}
		if err := createEvent(tx, id, actor, eventType, eventData); err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&listing).Error
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, &listing)
	return &listing, nil
}

// createEvent runs after the listing row was written in tx, so concurrent writers to
// the same listing are serialized by its row lock and get consecutive seq values.
func createEvent(tx *gorm.DB, listingID, actor uuid.UUID, eventType string, data map[string]interface{}) error {
	b, _ := json.Marshal(data)
	var last int64
	if err := tx.Model(&domain.ListingEvent{}).Where("listing_id = ?", listingID).
		Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return fmt.Errorf("Failed to create listing event: %v", err)
	}
	if err := tx.Create(&domain.ListingEvent{
		ListingID:   listingID,
		Seq:         last + 1,
		EventType:   eventType,
		EventData:   datatypes.JSON(b),
		ActorUserID: actor,
	}).Error; err != nil {
		return fmt.Errorf("Failed to create listing event: %v", err)
	}
	return nil
}

// publish is best effort: the write is already committed.
func (s *Service) publish(ctx context.Context, l *domain.PetListing) {
	if s.Publisher == nil {
		return
	}
	ch := realtime.Change{ListingID: l.ID.String(), SellerID: l.SellerID.String()}
	if err := s.Publisher.Publish(ctx, ch); err != nil {
		log.Warn().Err(err).Str("listing_id", ch.ListingID).Msg("listings: publish change failed")
	}
}
