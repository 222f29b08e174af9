// Package confirmemail реализует HTTP-обработчик подтверждения электронной почты.
package confirmemail

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/api/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Request — входные данные для подтверждения почты
type Request struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// AccountService определяет методы бизнес-логики для подтверждения почты.
type AccountService interface {
	ConfirmUserEmail(ctx context.Context, userUID, code string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы подтверждения почты.
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
	const op = "handlers.user.confirmemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

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

	user, err := h.account.ConfirmUserEmail(r.Context(), userUID, req.Code)
	if err != nil {
		log.Error("email confirmation failed", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("email confirmed", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"status":   user.Status,
	}))
}
