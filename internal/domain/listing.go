package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingStatus is the sale state of a listing.
type ListingStatus string

const (
	StatusAvailable ListingStatus = "AVAILABLE"
	StatusReserved  ListingStatus = "RESERVED"
	StatusSold      ListingStatus = "SOLD"
)

const DefaultCurrency = "USD"

// ParseListingStatus accepts any casing ("sold", "Sold", "SOLD").
func ParseListingStatus(s string) (ListingStatus, bool) {
	switch st := ListingStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusAvailable, StatusReserved, StatusSold:
		return st, true
	}
	return "", false
}

// PetListing is a pet-for-sale record. SellerID references User.ID by convention only.
type PetListing struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SellerID    uuid.UUID                   `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	SellerName  string                      `gorm:"column:seller_name" json:"seller_name"`
	Title       string                      `gorm:"column:title;not null" json:"title"`
	Description string                      `gorm:"column:description" json:"description"`
	Species     string                      `gorm:"column:species;not null" json:"species"`
	Breed       string                      `gorm:"column:breed" json:"breed"`
	Age         string                      `gorm:"column:age" json:"age"`
	Gender      string                      `gorm:"column:gender" json:"gender"`
	Price       float64                     `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Currency    string                      `gorm:"column:currency;type:varchar(3);default:'USD'" json:"currency"`
	PhotoURLs   datatypes.JSONSlice[string] `gorm:"column:photo_urls;type:json" json:"photo_urls"`
	Location    string                      `gorm:"column:location;not null" json:"location"`
	Status      ListingStatus               `gorm:"column:status;type:varchar(20);default:'AVAILABLE'" json:"status"`
	CreatedAt   int64                       `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt   int64                       `gorm:"column:updated_at" json:"updatedAt"`
}

func (PetListing) TableName() string {
	return "PetListings"
}

// BeforeCreate sets the id and defaults; timestamps are epoch milliseconds.
func (l *PetListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = StatusAvailable
	}
	if l.Currency == "" {
		l.Currency = DefaultCurrency
	}
	if l.PhotoURLs == nil {
		l.PhotoURLs = datatypes.JSONSlice[string]{}
	}
	now := time.Now().UnixMilli()
	if l.CreatedAt == 0 {
		l.CreatedAt = now
	}
	if l.UpdatedAt == 0 {
		l.UpdatedAt = l.CreatedAt
	}
	return nil
}
