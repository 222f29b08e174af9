// Package signup реализует HTTP-обработчик регистрации новых пользователей.
package signup

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Request — входные данные для регистрации
type Request struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

// AccountService определяет методы бизнес-логики для регистрации пользователя.
type AccountService interface {
	SignUp(ctx context.Context, fullname, username, email, rawPassword string) (*models.TokenPair, error)
}

// Handler обрабатывает HTTP-запросы регистрации пользователей.
type Handler struct {
	log      *slog.Logger
	account  AccountService
	validate *validator.Validate
}

// New создает новый экземпляр Handler с заданным логгером и сервисом учетных записей.
func New(log *slog.Logger, account AccountService) *Handler {
	return &Handler{
		log:      log,
		account:  account,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

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

	pair, err := h.account.SignUp(r.Context(), req.Fullname, req.Username, req.Email, req.Password)
	if err != nil {
		log.Error("signup failed", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("signup success", slog.String("username", req.Username), slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username":      req.Username,
		"email":         req.Email,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}
