// Package grantadmin реализует HTTP-обработчик выдачи роли администратора.
package grantadmin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// AccountService определяет методы бизнес-логики для выдачи роли администратора.
type AccountService interface {
	UpdateUserRoleToAdmin(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы выдачи роли администратора.
type Handler struct {
	log     *slog.Logger
	account AccountService
}

// New создает новый экземпляр Handler с заданным логгером и сервисом учетных записей.
func New(log *slog.Logger, account AccountService) *Handler {
	return &Handler{
		log:     log,
		account: account,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grantadmin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uuid")
	if _, err := uuid.Parse(userUID); err != nil {
		log.Error("invalid user uuid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user uuid"))
		return
	}

	user, err := h.account.UpdateUserRoleToAdmin(r.Context(), userUID)
	if err != nil {
		log.Error("failed to grant admin role", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("admin role granted", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username": user.Username,
		"roles":    user.RoleNames(),
	}))
}
