// Package jwt реализует генерацию и парсинг пары JWT токенов
// с пользовательскими claim полями.
//
// AccessClaims несет идентификатор, имя, почту и роли пользователя,
// RefreshClaims — только идентификатор и имя. Подписи проверяются
// разными секретами, подмена одного токена другим невозможна.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/account-service/internal/models"
)

// AccessClaims описывает данные пользователя, хранящиеся в access-токене.
type AccessClaims struct {
	Username             string   `json:"username"` // Имя пользователя
	Email                string   `json:"email"`    // Электронная почта
	UserUID              string   `json:"id"`       // Идентификатор пользователя
	Roles                []string `json:"roles"`    // Имена ролей пользователя
	jwt.RegisteredClaims          // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// RefreshClaims описывает данные пользователя, хранящиеся в refresh-токене.
type RefreshClaims struct {
	Username             string `json:"username"` // Имя пользователя
	UserUID              string `json:"id"`       // Идентификатор пользователя
	jwt.RegisteredClaims
}

// GeneratePair создает пару access/refresh токенов для пользователя,
// подписывая каждый своим секретным ключом.
func (j *MakerImpl) GeneratePair(user *models.User) (*models.TokenPair, error) {
	const op = "jwt.GeneratePair"

	now := time.Now()
	accessClaims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		UserUID:  user.UID,
		Roles:    user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(j.accessSecret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshClaims := RefreshClaims{
		Username: user.Username,
		UserUID:  user.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(j.refreshSecret))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// ParseAccessToken парсит access-токен, проверяет его подпись и срок,
// возвращает AccessClaims с данными, если токен корректен.
func (j *MakerImpl) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	const op = "jwt.ParseAccessToken"
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.accessSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// ParseRefreshToken парсит refresh-токен, проверяет его подпись и срок,
// возвращает RefreshClaims с данными, если токен корректен.
func (j *MakerImpl) ParseRefreshToken(tokenStr string) (*RefreshClaims, error) {
	const op = "jwt.ParseRefreshToken"
	token, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.refreshSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
