package middlewarectx

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/api/response"
)

// RequireRole возвращает middleware, пропускающий запрос только если среди
// ролей пользователя из контекста есть хотя бы одна из требуемых.
// Должен стоять после JWTMiddleware.
func RequireRole(log *slog.Logger, requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userRoles, ok := r.Context().Value(Roles).([]string)
			if !ok {
				log.Error("user roles missing in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			for _, required := range requiredRoles {
				if slices.Contains(userRoles, required) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Error("access denied", slog.Any("user_roles", userRoles))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		})
	}
}
