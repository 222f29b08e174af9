// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// ролей и ограничения частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность access-токена в заголовке
// Authorization, убеждается, что сессия пользователя не закрыта выходом
// из системы, и добавляет в контекст идентификатор, имя и роли пользователя.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/api/response"
	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Roles — ключ для списка ролей пользователя в контексте
	Roles Key = "roles"
)

// Время жизни кэшированного признака активной сессии. Не превышает
// срок жизни access-токена, при выходе ключ сбрасывается явно.
const sessionCacheTTL = 15 * time.Minute

// TokenParser описывает проверку подписи и срока действия access-токена.
type TokenParser interface {
	ParseAccessToken(tokenString string) (*jwt.AccessClaims, error)
}

// SessionCache кэширует признак активной сессии пользователя.
type SessionCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// UserProvider загружает пользователя для проверки состояния сессии.
type UserProvider interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет access-токен
// в заголовке Authorization. Токен с валидной подписью отклоняется, если
// пользователь вышел из системы: признак активной сессии берется из кэша,
// при промахе — из базы по наличию хэша refresh-токена.
func JWTMiddleware(tokens TokenParser, sessions SessionCache, users UserProvider, sessionKey func(string) string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := tokens.ParseAccessToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			active, err := hasActiveSession(r.Context(), sessions, users, sessionKey(claims.UserUID), claims.UserUID, log)
			if err != nil {
				log.Error("failed to check user session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}
			if !active {
				log.Error("user has no active session")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("you have been logged out"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, User, claims.Username)
			ctx = context.WithValue(ctx, Roles, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasActiveSession(ctx context.Context, sessions SessionCache, users UserProvider, key, userUID string, log *slog.Logger) (bool, error) {
	var cached bool
	found, err := sessions.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("session cache unavailable", sl.Err(err))
	}
	if found && err == nil {
		return cached, nil
	}

	user, err := users.GetUserByUID(ctx, userUID)
	if err != nil {
		// Пользователь мог быть удален после выпуска токена.
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	active := user.RefreshTokenHash != nil

	if active {
		if err := sessions.Set(ctx, key, true, sessionCacheTTL); err != nil {
			log.Warn("failed to cache session state", sl.Err(err))
		}
	}
	return active, nil
}
