package grantadmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) UpdateUserRoleToAdmin(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func doRequest(t *testing.T, handler *Handler, uid string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+uid+"/grant-admin", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("uuid", uid)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGrantAdminHandler_ServeHTTP(t *testing.T) {
	const validUID = "c6f7a3de-6a88-4d2f-9a55-1f4f24be1a30"

	t.Run("admin role granted", func(t *testing.T) {
		accountMock := new(AccountServiceMock)
		handler := New(newNoopLogger(), accountMock)

		accountMock.On("UpdateUserRoleToAdmin", mock.Anything, validUID).
			Return(&models.User{UID: validUID, Username: "testuser",
				Roles: []models.Role{
					{RoleName: models.RoleUser},
					{RoleName: models.RoleAdmin},
				}}, nil).Once()

		rec := doRequest(t, handler, validUID)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		data := got["data"].(map[string]any)
		assert.ElementsMatch(t, []any{models.RoleUser, models.RoleAdmin}, data["roles"])
		accountMock.AssertExpectations(t)
	})

	t.Run("malformed uuid gives 400", func(t *testing.T) {
		handler := New(newNoopLogger(), new(AccountServiceMock))

		rec := doRequest(t, handler, "not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid user uuid")
	})

	t.Run("unknown user gives 404", func(t *testing.T) {
		accountMock := new(AccountServiceMock)
		handler := New(newNoopLogger(), accountMock)

		accountMock.On("UpdateUserRoleToAdmin", mock.Anything, validUID).
			Return(nil, fmt.Errorf("account.UpdateUserRoleToAdmin: %w", apperr.ErrNotFound)).Once()

		rec := doRequest(t, handler, validUID)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		accountMock.AssertExpectations(t)
	})
}
