// Package services реализует выпуск и ротацию пар JWT-токенов.
// Access-токен живет коротко и проверяется без обращения к базе,
// refresh-токен хранится в базе в виде SHA-256 хэша и заменяется
// при каждом обновлении пары.
package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// RefreshTokenRepository описывает контракт для хранения хэша refresh-токена.
type RefreshTokenRepository interface {
	UpdateRefreshTokenHash(ctx context.Context, userUID string, hash *string) error
}

// TokenService выпускает пары токенов и управляет состоянием сессии пользователя.
type TokenService struct {
	maker jwt.Maker
	users RefreshTokenRepository
}

// NewTokenService создает новый экземпляр TokenService.
func NewTokenService(maker jwt.Maker, users RefreshTokenRepository) *TokenService {
	return &TokenService{maker: maker, users: users}
}

// IssuePair выпускает новую пару токенов и сохраняет хэш refresh-токена
// за пользователем, вытесняя предыдущую сессию.
func (s *TokenService) IssuePair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "token.IssuePair"

	pair, err := s.maker.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := HashRefreshToken(pair.RefreshToken)
	if err := s.users.UpdateRefreshTokenHash(ctx, user.UID, &hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// VerifyRefresh сверяет предъявленный refresh-токен с хэшем, сохраненным
// за пользователем. Отсутствующий хэш означает, что пользователь вышел
// из системы.
func (s *TokenService) VerifyRefresh(user *models.User, rawToken string) error {
	const op = "token.VerifyRefresh"

	if user.RefreshTokenHash == nil {
		return fmt.Errorf("%s: %w: you have been logged out", op, apperr.ErrUnauthorized)
	}
	presented := HashRefreshToken(rawToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*user.RefreshTokenHash)) != 1 {
		return fmt.Errorf("%s: %w: refresh token mismatch", op, apperr.ErrUnauthorized)
	}
	return nil
}

// ClearRefresh удаляет хэш refresh-токена, закрывая сессию пользователя.
func (s *TokenService) ClearRefresh(ctx context.Context, userUID string) error {
	const op = "token.ClearRefresh"
	if err := s.users.UpdateRefreshTokenHash(ctx, userUID, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ParseAccessToken проверяет подпись и срок действия access-токена.
func (s *TokenService) ParseAccessToken(tokenString string) (*jwt.AccessClaims, error) {
	const op = "token.ParseAccessToken"
	claims, err := s.maker.ParseAccessToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrUnauthorized, err)
	}
	return claims, nil
}

// ParseRefreshToken проверяет подпись и срок действия refresh-токена.
func (s *TokenService) ParseRefreshToken(tokenString string) (*jwt.RefreshClaims, error) {
	const op = "token.ParseRefreshToken"
	claims, err := s.maker.ParseRefreshToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrUnauthorized, err)
	}
	return claims, nil
}

// HashRefreshToken возвращает hex-представление SHA-256 от токена.
// В базе хранится только хэш, сам токен не сохраняется.
func HashRefreshToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
