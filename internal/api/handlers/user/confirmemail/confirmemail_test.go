package confirmemail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/api/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) ConfirmUserEmail(ctx context.Context, userUID, code string) (*models.User, error) {
	args := m.Called(ctx, userUID, code)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func doRequest(t *testing.T, handler *Handler, body any, userUID string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyBytes []byte
	switch v := body.(type) {
	case string:
		bodyBytes = []byte(v)
	default:
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/confirm-email", bytes.NewReader(bodyBytes))
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	if userUID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	return rec
}

func TestConfirmEmailHandler_ServeHTTP(t *testing.T) {
	t.Run("valid code activates user", func(t *testing.T) {
		accountMock := new(AccountServiceMock)
		handler := New(newNoopLogger(), accountMock)

		accountMock.On("ConfirmUserEmail", mock.Anything, "user-uid", "123456").
			Return(&models.User{UID: "user-uid", Username: "testuser",
				Email: "test@example.com", Status: models.StatusActive}, nil).Once()

		rec := doRequest(t, handler, Request{Code: "123456"}, "user-uid")

		assert.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		data := got["data"].(map[string]any)
		assert.Equal(t, "active", data["status"])
		accountMock.AssertExpectations(t)
	})

	t.Run("wrong code returns attempts left", func(t *testing.T) {
		accountMock := new(AccountServiceMock)
		handler := New(newNoopLogger(), accountMock)

		accountMock.On("ConfirmUserEmail", mock.Anything, "user-uid", "654321").
			Return(nil, fmt.Errorf("account.ConfirmUserEmail: %w",
				&apperr.CodeRejectedError{AttemptsLeft: 2})).Once()

		rec := doRequest(t, handler, Request{Code: "654321"}, "user-uid")

		assert.Equal(t, http.StatusNotAcceptable, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, float64(2), got["attempts_left"])
		accountMock.AssertExpectations(t)
	})

	t.Run("exhausted attempts suggest re-registration", func(t *testing.T) {
		accountMock := new(AccountServiceMock)
		handler := New(newNoopLogger(), accountMock)

		accountMock.On("ConfirmUserEmail", mock.Anything, "user-uid", "654321").
			Return(nil, fmt.Errorf("account.ConfirmUserEmail: %w: confirmation attempts exhausted, register your email again",
				apperr.ErrNotAcceptable)).Once()

		rec := doRequest(t, handler, Request{Code: "654321"}, "user-uid")

		assert.Equal(t, http.StatusNotAcceptable, rec.Code)
		accountMock.AssertExpectations(t)
	})

	t.Run("non-numeric code fails validation", func(t *testing.T) {
		handler := New(newNoopLogger(), new(AccountServiceMock))

		rec := doRequest(t, handler, Request{Code: "abc123"}, "user-uid")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "field Code can contain only numbers")
	})

	t.Run("missing user context gives 401", func(t *testing.T) {
		handler := New(newNoopLogger(), new(AccountServiceMock))

		rec := doRequest(t, handler, Request{Code: "123456"}, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
