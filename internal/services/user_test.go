package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetAndList(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, config.JWTConfig{}, config.PasswordResetConfig{}, nil, nil)
	users := NewUserService(db)
	ctx := context.Background()

	alice := registerAlice(t, auth)

	got, err := users.Get(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FullName)

	_, err = users.Get(ctx, "missing")
	requireAppError(t, err, http.StatusNotFound, "User not found")

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserService_Update(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, config.JWTConfig{}, config.PasswordResetConfig{}, nil, nil)
	users := NewUserService(db)
	ctx := context.Background()

	alice := registerAlice(t, auth).User
	bob, err := auth.Register(ctx, &RegisterRequest{FullName: "Bob", Email: "b@x.com", Role: models.RoleCitizen, Password: testPassword})
	require.NoError(t, err)

	t.Run("keeps password when none supplied", func(t *testing.T) {
		updated, err := users.Update(ctx, alice.ID, alice.ID, &UpdateUserRequest{
			FullName: " Alice Smith ",
			Email:    "Alice@X.com",
			Role:     models.RoleOrganization,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", updated.FullName)
		assert.Equal(t, "alice@x.com", updated.Email)
		assert.Equal(t, models.RoleOrganization, updated.Role)

		_, err = auth.Login(ctx, &LoginRequest{Email: "alice@x.com", Password: testPassword})
		assert.NoError(t, err)
	})

	t.Run("rehashes new password", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, &UpdateUserRequest{
			FullName: "Alice Smith",
			Email:    "alice@x.com",
			Role:     models.RoleOrganization,
			Password: "Changed123",
		})
		require.NoError(t, err)

		stored, err := users.Get(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, utils.CheckPassword("Changed123", stored.Password))
	})

	t.Run("validates password only when present", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, &UpdateUserRequest{
			FullName: "Alice Smith",
			Email:    "alice@x.com",
			Role:     models.RoleOrganization,
			Password: "weak",
		})
		appErr := requireAppError(t, err, http.StatusBadRequest, "Validation failed")
		assert.Equal(t, []string{"Password must be at least 8 characters long"}, appErr.Errors)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, alice.ID, &UpdateUserRequest{
			FullName: "Alice Smith",
			Email:    "b@x.com",
			Role:     models.RoleOrganization,
		})
		requireAppError(t, err, http.StatusConflict, "User with this email already exists")
	})

	t.Run("only the account holder", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, bob.User.ID, &UpdateUserRequest{
			FullName: "Hijacked",
			Email:    "alice@x.com",
			Role:     models.RoleCitizen,
		})
		requireAppError(t, err, http.StatusForbidden, "Forbidden: You can only update your own profile")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.Update(ctx, "missing", "missing", &UpdateUserRequest{})
		requireAppError(t, err, http.StatusNotFound, "User not found")
	})
}
