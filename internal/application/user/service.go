package user

import (
	"context"
	"errors"
	"strings"

	"pettie-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("User not found")
	ErrNoUpdateFields    = errors.New("No valid update fields provided")
	ErrDisplayNameBlank  = errors.New("Display name cannot be empty")
	ErrInvalidFieldValue = errors.New("Profile fields must be strings")
)

// Service reads and edits profile documents.
type Service struct {
	DB *gorm.DB
}

// profileFields are the columns an owner may edit.
var profileFields = map[string]bool{
	"display_name": true, "phone": true, "location": true, "photo_url": true,
}

// GetUser returns the profile, or (nil, nil) when no such user exists.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile applies the allowed fields; unknown keys are ignored.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) (*domain.User, error) {
	upd := make(map[string]interface{})
	for k, v := range fields {
		if !profileFields[k] {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, ErrInvalidFieldValue
		}
		upd[k] = strings.TrimSpace(str)
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}
	if name, ok := upd["display_name"]; ok && name == "" {
		return nil, ErrDisplayNameBlank
	}

	result := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(upd)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
