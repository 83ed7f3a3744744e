package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"pettie-backend/internal/application/emails"
	"pettie-backend/internal/domain"
	"pettie-backend/internal/infrastructure/sessions"
	"pettie-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetTokenPrefix = "password_reset:"
	ResetTokenTTL    = time.Hour
	bcryptCost       = 10
)

// Service signs users in and manages credentials.
type Service struct {
	DB           *gorm.DB
	Rdb          *redis.Client
	EmailSender  emails.Sender
	ResetBaseURL string
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
}

// SignIn checks the credentials and returns the user.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	if validation.AnyBlank(email, password) {
		return nil, ErrEmailPasswordRequired
	}
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return u, nil
}

// Register validates the form in a fixed order, creates the user and sends a welcome email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if validation.AnyBlank(in.Email, in.Password, in.DisplayName) {
		return nil, ErrFieldsRequired
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrPasswordTooShort
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	existing, err := s.findByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        normalizeEmail(in.Email),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PasswordHash: string(hash),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}

	if s.EmailSender != nil {
		if err := s.EmailSender.SendWelcome(ctx, u.Email, u.DisplayName); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("auth: welcome email failed")
		}
	}
	return u, nil
}

// RequestPasswordReset issues a one-hour token and emails the reset link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if validation.IsBlank(email) {
		return ErrEmailRequired
	}
	if !validation.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}

	token := uuid.New().String()
	if err := s.Rdb.Set(ctx, resetTokenPrefix+token, u.ID.String(), ResetTokenTTL).Err(); err != nil {
		return err
	}
	if s.EmailSender == nil {
		return nil
	}
	link := s.ResetBaseURL + "?token=" + token
	if err := s.EmailSender.SendPasswordReset(ctx, u.Email, link); err != nil {
		// nobody received the link, so it must not stay redeemable
		if derr := s.Rdb.Del(context.Background(), resetTokenPrefix+token).Err(); derr != nil {
			log.Warn().Err(derr).Msg("auth: failed to drop unsent reset token")
		}
		return err
	}
	return nil
}

// ConfirmPasswordReset sets a new password, consumes the token and revokes all sessions of the user.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if validation.IsBlank(token) {
		return ErrInvalidResetToken
	}
	if !validation.IsValidPassword(password) {
		return ErrPasswordTooShort
	}
	userID, err := s.Rdb.Get(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("password_hash", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidResetToken
	}
	s.Rdb.Del(ctx, resetTokenPrefix+token)
	sessions.DestroyUserSessions(ctx, s.Rdb, userID)
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
