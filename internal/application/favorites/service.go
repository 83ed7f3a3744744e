package favorites

import (
	"context"
	"errors"

	"pettie-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrListingNotFound = errors.New("Listing not found")

// Service keeps the per-user saved listings.
type Service struct {
	DB *gorm.DB
}

// Add saves a listing for the user. Saving it twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&domain.PetListing{}).Where("id = ?", listingID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrListingNotFound
	}
	fav := &domain.Favorite{UserID: userID, ListingID: listingID}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoNothing: true,
	}).Create(fav).Error
}

// Remove deletes a saved listing; removing one that is not saved is not an error.
func (s *Service) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&domain.Favorite{}).Error
}

// List returns the user's favorites with their listings, most recently saved first.
// Favorites whose listing is gone are skipped.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	var favs []domain.Favorite
	err := s.DB.WithContext(ctx).Preload("Listing").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Favorite, 0, len(favs))
	for _, f := range favs {
		if f.Listing != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// IsFavorite reports whether the user saved the listing.
func (s *Service) IsFavorite(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&n).Error
	return n > 0, err
}
