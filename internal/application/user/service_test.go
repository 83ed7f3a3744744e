package user

import (
	"context"
	"testing"

	"pettie-backend/internal/domain"
	"pettie-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Service) *domain.User {
	t.Helper()
	u := &domain.User{Email: "ada@pettie.test", DisplayName: "Ada", PasswordHash: "x"}
	require.NoError(t, s.DB.Create(u).Error)
	return u
}

func TestGetUser(t *testing.T) {
	s := &Service{DB: testutil.DB(t)}
	u := seedUser(t, s)

	got, err := s.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.DisplayName)

	missing, err := s.GetUser(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateProfile(t *testing.T) {
	s := &Service{DB: testutil.DB(t)}
	u := seedUser(t, s)

	got, err := s.UpdateProfile(context.Background(), u.ID, map[string]interface{}{
		"display_name": " Ada L ",
		"location":     "Lisbon",
		"email":        "ignored@pettie.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", got.DisplayName)
	assert.Equal(t, "Lisbon", got.Location)
	assert.Equal(t, "ada@pettie.test", got.Email)
}

func TestUpdateProfile_Errors(t *testing.T) {
	s := &Service{DB: testutil.DB(t)}
	u := seedUser(t, s)
	ctx := context.Background()

	_, err := s.UpdateProfile(ctx, u.ID, map[string]interface{}{"email": "x@y.z"})
	assert.Equal(t, ErrNoUpdateFields, err)

	_, err = s.UpdateProfile(ctx, u.ID, map[string]interface{}{"display_name": "  "})
	assert.Equal(t, ErrDisplayNameBlank, err)

	_, err = s.UpdateProfile(ctx, u.ID, map[string]interface{}{"phone": 12})
	assert.Equal(t, ErrInvalidFieldValue, err)

	_, err = s.UpdateProfile(ctx, uuid.New(), map[string]interface{}{"phone": "1"})
	assert.Equal(t, ErrUserNotFound, err)
}
