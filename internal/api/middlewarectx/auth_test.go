package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/models"
)

type mockTokenParser struct {
	mock.Mock
}

func (m *mockTokenParser) ParseAccessToken(tokenString string) (*jwt.AccessClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.AccessClaims), args.Error(1)
}

type mockSessionCache struct {
	mock.Mock
}

func (m *mockSessionCache) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	if args.Bool(0) {
		*(result.(*bool)) = true
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

type mockUserProvider struct {
	mock.Mock
}

func (m *mockUserProvider) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionKey(userUID string) string {
	return "session:" + userUID
}

func validClaims() *jwt.AccessClaims {
	return &jwt.AccessClaims{
		Username: "testuser",
		UserUID:  "user-uid",
		Roles:    []string{models.RoleUser},
	}
}

func TestJWTMiddleware(t *testing.T) {
	t.Run("valid token with active session passes", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		tokens.On("ParseAccessToken", "valid-token").Return(validClaims(), nil).Once()
		sessions.On("Get", mock.Anything, "session:user-uid", mock.Anything).
			Return(true, nil).Once()

		var gotUID, gotUser string
		var gotRoles []string
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			gotUID = r.Context().Value(UserUID).(string)
			gotUser = r.Context().Value(User).(string)
			gotRoles = r.Context().Value(Roles).([]string)
		})

		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(next)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-uid", gotUID)
		assert.Equal(t, "testuser", gotUser)
		assert.Equal(t, []string{models.RoleUser}, gotRoles)
		tokens.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("missing header returns 401", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token returns 401", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		tokens.On("ParseAccessToken", "bad-token").
			Return(nil, apperr.ErrUnauthorized).Once()

		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		tokens.AssertExpectations(t)
	})

	t.Run("logged out user rejected on cache miss", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		tokens.On("ParseAccessToken", "valid-token").Return(validClaims(), nil).Once()
		sessions.On("Get", mock.Anything, "session:user-uid", mock.Anything).
			Return(false, nil).Once()
		users.On("GetUserByUID", mock.Anything, "user-uid").
			Return(&models.User{UID: "user-uid", RefreshTokenHash: nil}, nil).Once()

		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "you have been logged out")
		tokens.AssertExpectations(t)
		sessions.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("deleted user is rejected as logged out", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		tokens.On("ParseAccessToken", "valid-token").Return(validClaims(), nil).Once()
		sessions.On("Get", mock.Anything, "session:user-uid", mock.Anything).
			Return(false, nil).Once()
		users.On("GetUserByUID", mock.Anything, "user-uid").
			Return(nil, apperr.ErrNotFound).Once()

		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "you have been logged out")
		users.AssertExpectations(t)
	})

	t.Run("active session from db gets cached", func(t *testing.T) {
		tokens := new(mockTokenParser)
		sessions := new(mockSessionCache)
		users := new(mockUserProvider)

		hash := "stored-hash"
		tokens.On("ParseAccessToken", "valid-token").Return(validClaims(), nil).Once()
		sessions.On("Get", mock.Anything, "session:user-uid", mock.Anything).
			Return(false, nil).Once()
		users.On("GetUserByUID", mock.Anything, "user-uid").
			Return(&models.User{UID: "user-uid", RefreshTokenHash: &hash}, nil).Once()
		sessions.On("Set", mock.Anything, "session:user-uid", true, sessionCacheTTL).
			Return(nil).Once()

		called := false
		handler := JWTMiddleware(tokens, sessions, users, sessionKey, noopLogger())(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				called = true
			}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		sessions.AssertExpectations(t)
		users.AssertExpectations(t)
	})
}

func TestRequireRole(t *testing.T) {
	newRequest := func(roles any) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if roles != nil {
			ctx := context.WithValue(req.Context(), Roles, roles)
			req = req.WithContext(ctx)
		}
		return req
	}

	t.Run("user with required role passes", func(t *testing.T) {
		called := false
		handler := RequireRole(noopLogger(), models.RoleAdmin, models.RoleSuperAdmin)(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				called = true
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest([]string{models.RoleUser, models.RoleAdmin}))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user without required role gets 403", func(t *testing.T) {
		handler := RequireRole(noopLogger(), models.RoleSuperAdmin)(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest([]string{models.RoleUser}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("request without roles in context gets 401", func(t *testing.T) {
		handler := RequireRole(noopLogger(), models.RoleAdmin)(
			http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("next handler must not be called")
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
