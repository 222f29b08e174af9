package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/models"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) UpdateRefreshTokenHash(ctx context.Context, userUID string, hash *string) error {
	args := m.Called(ctx, userUID, hash)
	return args.Error(0)
}

func newTestUser() *models.User {
	return &models.User{
		UID:      "user-uid",
		Username: "testuser",
		Email:    "test@example.com",
		Status:   models.StatusActive,
		Roles:    []models.Role{{UID: "role-uid", RoleName: models.RoleUser}},
	}
}

func newTestService(repo *mockRefreshTokenRepository) *TokenService {
	maker := jwt.NewMaker(testAccessSecret, testRefreshSecret, 15*time.Minute, 168*time.Hour)
	return NewTokenService(maker, repo)
}

func TestTokenService_IssuePair(t *testing.T) {
	repo := new(mockRefreshTokenRepository)
	service := newTestService(repo)
	user := newTestUser()

	var storedHash *string
	repo.On("UpdateRefreshTokenHash", mock.Anything, "user-uid", mock.AnythingOfType("*string")).
		Run(func(args mock.Arguments) {
			storedHash = args.Get(2).(*string)
		}).Return(nil).Once()

	pair, err := service.IssuePair(context.Background(), user)

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	require.NotNil(t, storedHash)
	assert.Equal(t, HashRefreshToken(pair.RefreshToken), *storedHash)
	repo.AssertExpectations(t)
}

func TestTokenService_VerifyRefresh(t *testing.T) {
	repo := new(mockRefreshTokenRepository)
	service := newTestService(repo)

	t.Run("matching hash is accepted", func(t *testing.T) {
		raw := "refresh-token-value"
		hash := HashRefreshToken(raw)
		user := newTestUser()
		user.RefreshTokenHash = &hash

		require.NoError(t, service.VerifyRefresh(user, raw))
	})

	t.Run("user without stored hash is logged out", func(t *testing.T) {
		user := newTestUser()

		err := service.VerifyRefresh(user, "any-token")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.Contains(t, err.Error(), "logged out")
	})

	t.Run("foreign token is rejected", func(t *testing.T) {
		hash := HashRefreshToken("stored-token")
		user := newTestUser()
		user.RefreshTokenHash = &hash

		err := service.VerifyRefresh(user, "another-token")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestTokenService_ClearRefresh(t *testing.T) {
	repo := new(mockRefreshTokenRepository)
	service := newTestService(repo)

	repo.On("UpdateRefreshTokenHash", mock.Anything, "user-uid", (*string)(nil)).
		Return(nil).Once()

	require.NoError(t, service.ClearRefresh(context.Background(), "user-uid"))
	repo.AssertExpectations(t)
}

func TestTokenService_ParseTokens(t *testing.T) {
	repo := new(mockRefreshTokenRepository)
	service := newTestService(repo)
	user := newTestUser()

	repo.On("UpdateRefreshTokenHash", mock.Anything, "user-uid", mock.AnythingOfType("*string")).
		Return(nil)

	pair, err := service.IssuePair(context.Background(), user)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		claims, err := service.ParseAccessToken(pair.AccessToken)

		require.NoError(t, err)
		assert.Equal(t, "testuser", claims.Username)
		assert.Equal(t, "user-uid", claims.UserUID)
		assert.Equal(t, []string{models.RoleUser}, claims.Roles)
	})

	t.Run("valid refresh token", func(t *testing.T) {
		claims, err := service.ParseRefreshToken(pair.RefreshToken)

		require.NoError(t, err)
		assert.Equal(t, "testuser", claims.Username)
		assert.Equal(t, "user-uid", claims.UserUID)
	})

	t.Run("garbage token fails with Unauthorized", func(t *testing.T) {
		_, err := service.ParseAccessToken("not-a-token")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)

		_, err = service.ParseRefreshToken("not-a-token")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestHashRefreshToken(t *testing.T) {
	first := HashRefreshToken("same-token")
	second := HashRefreshToken("same-token")
	other := HashRefreshToken("other-token")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}
