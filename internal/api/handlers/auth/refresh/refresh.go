// Package refresh реализует HTTP-обработчик обновления пары токенов.
package refresh

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Request — входные данные для обновления токенов
type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenService определяет разбор refresh-токена для извлечения пользователя.
type TokenService interface {
	ParseRefreshToken(tokenString string) (*jwt.RefreshClaims, error)
}

// AccountService определяет методы бизнес-логики для ротации токенов.
type AccountService interface {
	RefreshTokens(ctx context.Context, userUID, rawToken string) (*models.TokenPair, error)
}

// Handler обрабатывает HTTP-запросы обновления токенов.
type Handler struct {
	log      *slog.Logger
	tokens   TokenService
	account  AccountService
	validate *validator.Validate
}

// New создает новый экземпляр Handler с заданным логгером, сервисом токенов
// и сервисом учетных записей.
func New(log *slog.Logger, tokens TokenService, account AccountService) *Handler {
	return &Handler{
		log:      log,
		tokens:   tokens,
		account:  account,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	claims, err := h.tokens.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		log.Error("invalid refresh token", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired refresh token"))
		return
	}

	pair, err := h.account.RefreshTokens(r.Context(), claims.UserUID, req.RefreshToken)
	if err != nil {
		log.Error("failed to refresh tokens", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("tokens refreshed", slog.String("user_uid", claims.UserUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}
