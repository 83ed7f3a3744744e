package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite is a listing saved by a user. (user_id, listing_id) is unique.
type Favorite struct {
	ID        uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID   `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_favorite_user_listing" json:"user_id"`
	ListingID uuid.UUID   `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:idx_favorite_user_listing" json:"listing_id"`
	CreatedAt int64       `gorm:"column:created_at" json:"createdAt"`
	Listing   *PetListing `gorm:"foreignKey:ListingID;references:ID" json:"listing,omitempty"`
}

func (Favorite) TableName() string {
	return "Favorites"
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().UnixMilli()
	}
	return nil
}
