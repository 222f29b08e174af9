// Package jwt реализует генерацию и парсинг пары JWT токенов
// с пользовательскими claim полями.
//
// Maker определяет интерфейс для выпуска пары access/refresh токенов
// и их проверки. MakerImpl — конкретная реализация с двумя секретными
// ключами: access-токен подписывается одним секретом и живет минуты,
// refresh-токен — другим секретом и живет дни.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/account-service/internal/models"
)

// Maker описывает интерфейс для выпуска и парсинга пары JWT токенов.
type Maker interface {
	// GeneratePair выпускает пару access/refresh токенов для пользователя.
	GeneratePair(user *models.User) (*models.TokenPair, error)
	// ParseAccessToken проверяет access-токен и возвращает его claims.
	ParseAccessToken(tokenStr string) (*AccessClaims, error)
	// ParseRefreshToken проверяет refresh-токен и возвращает его claims.
	ParseRefreshToken(tokenStr string) (*RefreshClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием двух секретных
// ключей и времени жизни каждого токена (TTL).
type MakerImpl struct {
	accessSecret  string        // Секретный ключ для подписи access-токенов.
	refreshSecret string        // Секретный ключ для подписи refresh-токенов.
	accessTTL     time.Duration // Время жизни access-токена.
	refreshTTL    time.Duration // Время жизни refresh-токена.
}

// NewMaker создаёт новый экземпляр MakerImpl на основе секретных ключей и TTL.
func NewMaker(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}
