package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
)

func newUserFixture(t *testing.T) (UserService, *memUsers, *auth.Session) {
	t.Helper()
	store := new(MockTokenStore)
	store.On("RevokeUserAccessTokens", mock.Anything, mock.Anything).Return(nil).Maybe()
	return newUserFixtureWithStore(t, store)
}

func newUserFixtureWithStore(t *testing.T, store *MockTokenStore) (UserService, *memUsers, *auth.Session) {
	t.Helper()
	users := newMemUsers()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Email: "ash@example.com", Name: "ash", PasswordHash: string(hash), Points: 10}
	require.NoError(t, users.Create(context.Background(), user))
	return NewUserService(users, newMemProfiles(), store, zap.NewNop()), users, &auth.Session{UserID: user.ID, Email: user.Email}
}

func TestUserService_UpdateName(t *testing.T) {
	service, _, session := newUserFixture(t)

	user, err := service.UpdateName(context.Background(), session, "  Ash Ketchum ")
	require.NoError(t, err)
	assert.Equal(t, "ash ketchum", user.Name)

	_, err = service.UpdateName(context.Background(), session, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.UpdateName(context.Background(), nil, "misty")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserService_ChangePassword(t *testing.T) {
	service, users, session := newUserFixture(t)
	ctx := context.Background()

	err := service.ChangePassword(ctx, session, "wrong-password", "new-password-1")
	assert.Equal(t, apperrors.ErrInvalidCredentials, err)

	err = service.ChangePassword(ctx, session, "password123", "short")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, service.ChangePassword(ctx, session, "password123", "new-password-1"))
	user := must(users.FindByID(ctx, session.UserID))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password-1")))
}

func TestUserService_Profile(t *testing.T) {
	service, _, session := newUserFixture(t)
	ctx := context.Background()

	profile, err := service.GetProfile(ctx, session)
	require.NoError(t, err)
	assert.Nil(t, profile)

	in := ProfileInput{FullName: "Ash Ketchum", Address: "1 Route", PostalCode: 12345, City: "Pallet", Country: "Kanto"}
	saved, err := service.SaveProfile(ctx, session, in)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, saved.UserID)

	in.City = "Viridian"
	resaved, err := service.SaveProfile(ctx, session, in)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, resaved.ID)
	assert.Equal(t, "Viridian", resaved.City)

	in.PostalCode = 0
	_, err = service.SaveProfile(ctx, session, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	in.PostalCode = 12345
	in.Country = ""
	_, err = service.SaveProfile(ctx, session, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserService_AdminTools(t *testing.T) {
	service, _, session := newUserFixture(t)
	ctx := context.Background()

	user, err := service.SetAdmin(ctx, session.UserID, true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	user, err = service.AdjustPoints(ctx, session.UserID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, user.Points)

	_, err = service.AdjustPoints(ctx, session.UserID, -7)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.SetAdmin(ctx, "missing", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	users, err := service.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_SetAdminRevokesAccessTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("flag change revokes live tokens", func(t *testing.T) {
		store := new(MockTokenStore)
		service, _, session := newUserFixtureWithStore(t, store)
		store.On("RevokeUserAccessTokens", mock.Anything, session.UserID).Return(nil).Twice()

		user, err := service.SetAdmin(ctx, session.UserID, true)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())

		user, err = service.SetAdmin(ctx, session.UserID, false)
		require.NoError(t, err)
		assert.False(t, user.IsAdmin())
		store.AssertExpectations(t)
	})

	t.Run("unchanged flag keeps tokens", func(t *testing.T) {
		store := new(MockTokenStore)
		service, _, session := newUserFixtureWithStore(t, store)

		_, err := service.SetAdmin(ctx, session.UserID, false)
		require.NoError(t, err)
		store.AssertNotCalled(t, "RevokeUserAccessTokens", mock.Anything, mock.Anything)
	})

	t.Run("revocation failure does not undo the change", func(t *testing.T) {
		store := new(MockTokenStore)
		service, users, session := newUserFixtureWithStore(t, store)
		store.On("RevokeUserAccessTokens", mock.Anything, session.UserID).Return(errors.New("redis down"))

		user, err := service.SetAdmin(ctx, session.UserID, true)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())
		assert.True(t, must(users.FindByID(ctx, session.UserID)).IsAdmin())
	})
}
