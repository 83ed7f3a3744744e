package listingevents

import (
	"context"
	"errors"

	"pettie-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrForbidden       = errors.New("Only the seller can view listing history")
)

type Service struct {
	DB *gorm.DB
}

// GetListingEvents returns the audit trail of a listing in write order to its seller
// only. Events without a seq fall back to created_at.
func (s *Service) GetListingEvents(ctx context.Context, listingID, actor uuid.UUID) ([]domain.ListingEvent, error) {
	var listing domain.PetListing
	if err := s.DB.WithContext(ctx).Where("id = ?", listingID).Select("id", "seller_id").First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.SellerID != actor {
		return nil, ErrForbidden
	}

	events := []domain.ListingEvent{}
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).Order("seq ASC").Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
