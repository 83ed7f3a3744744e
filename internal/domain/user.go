package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the profile document for an account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DisplayName  string    `gorm:"column:display_name;not null" json:"display_name"`
	PhotoURL     string    `gorm:"column:photo_url" json:"photo_url"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	Location     string    `gorm:"column:location" json:"location"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    int64     `gorm:"column:created_at;autoCreateTime:milli" json:"createdAt"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate assigns the id for DBs without a uuid default.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UnixMilli()
	}
	return nil
}
