// Package createsuperadmin реализует HTTP-обработчик создания супер-администратора.
package createsuperadmin

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

// Request — входные данные для создания супер-администратора
type Request struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

// AccountService определяет методы бизнес-логики для создания супер-администратора.
type AccountService interface {
	CreateSuperAdmin(ctx context.Context, fullname, username, email string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы создания супер-администратора.
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
	const op = "handlers.admin.createsuperadmin"

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

	user, err := h.account.CreateSuperAdmin(r.Context(), req.Fullname, req.Username, req.Email)
	if err != nil {
		log.Error("failed to create super admin", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("super admin created", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message":  "super admin created, one-time password sent by email",
		"username": user.Username,
		"email":    user.Email,
	}))
}
