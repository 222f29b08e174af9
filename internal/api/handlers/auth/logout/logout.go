// Package logout реализует HTTP-обработчик выхода пользователя из системы.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/api/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
)

// AccountService определяет методы бизнес-логики для выхода пользователя.
type AccountService interface {
	Logout(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы выхода из системы.
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
	const op = "handlers.auth.logout"

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

	if err := h.account.Logout(r.Context(), userUID); err != nil {
		log.Error("logout failed", sl.Err(err))
		status, resp := response.FromError(err)
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("logout success", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "logged out successfully",
	}))
}
