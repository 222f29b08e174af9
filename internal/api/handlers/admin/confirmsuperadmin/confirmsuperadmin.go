// Package confirmsuperadmin реализует HTTP-обработчик активации супер-администратора.
package confirmsuperadmin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/api/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// AccountService определяет методы бизнес-логики для активации супер-администратора.
type AccountService interface {
	ConfirmSuperAdmin(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы активации супер-администратора.
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
	const op = "handlers.admin.confirmsuperadmin"

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

	user, err := h.account.ConfirmSuperAdmin(r.Context(), userUID)
	if err != nil {
		log.Error("failed to confirm super admin", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("super admin confirmed", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username": user.Username,
		"status":   user.Status,
	}))
}
