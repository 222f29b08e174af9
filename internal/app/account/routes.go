// Package account собирает HTTP-приложение сервиса учетных записей.
package account

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/account-service/internal/api/handlers/admin/confirmsuperadmin"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/admin/createsuperadmin"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/admin/grantadmin"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/auth/login"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/auth/logout"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/auth/refresh"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/auth/signup"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/health"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/user/changeemail"
	"github.com/magabrotheeeer/account-service/internal/api/handlers/user/confirmemail"
	"github.com/magabrotheeeer/account-service/internal/api/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/cache"
	"github.com/magabrotheeeer/account-service/internal/models"
	accountservice "github.com/magabrotheeeer/account-service/internal/services/account"
	tokenservice "github.com/magabrotheeeer/account-service/internal/services/token"
	"github.com/magabrotheeeer/account-service/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	accountService *accountservice.AccountService,
	tokenService *tokenservice.TokenService,
	storage *repository.Storage, rabbit *amqp.Connection, redisCache *cache.Cache) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authMiddleware := middlewarectx.JWTMiddleware(tokenService, redisCache, storage,
		accountservice.SessionCacheKey, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", signup.New(logger, accountService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, accountService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, tokenService, accountService).ServeHTTP)
		r.Post("/admin/super-admin", createsuperadmin.New(logger, accountService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/logout", logout.New(logger, accountService).ServeHTTP)
			r.Post("/users/confirm-email", confirmemail.New(logger, accountService).ServeHTTP)
			r.Post("/users/change-email", changeemail.New(logger, accountService).ServeHTTP)
		})

		// Группа для супер-администратора
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middlewarectx.RequireRole(logger, models.RoleSuperAdmin))
			r.Post("/admin/super-admin/confirm", confirmsuperadmin.New(logger, accountService).ServeHTTP)
			r.Post("/admin/users/{uuid}/grant-admin", grantadmin.New(logger, accountService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, storage, rabbit, redisCache).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
