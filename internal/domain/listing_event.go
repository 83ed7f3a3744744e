package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventCreated       = "CREATED"
	EventUpdated       = "UPDATED"
	EventStatusChanged = "STATUS_CHANGED"
)

// ListingEvent records one owner mutation of a listing.
type ListingEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	ListingID   uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index;index:idx_listing_events_seq,priority:1" json:"listing_id"`
	Seq         int64          `gorm:"column:seq;not null;default:0;index:idx_listing_events_seq,priority:2" json:"seq"` // per-listing write order
	EventType   string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData   datatypes.JSON `gorm:"column:event_data;type:json;not null" json:"event_data"`
	ActorUserID uuid.UUID      `gorm:"column:actor_user_id;type:uuid" json:"actor_user_id"`
	CreatedAt   int64          `gorm:"column:created_at" json:"createdAt"`
}

func (ListingEvent) TableName() string {
	return "ListingEvents"
}

func (le *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if le.EventID == uuid.Nil {
		le.EventID = uuid.New()
	}
	if le.CreatedAt == 0 {
		le.CreatedAt = time.Now().UnixMilli()
	}
	return nil
}
