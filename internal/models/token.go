package models

// TokenPair пара подписанных токенов, выдаваемая клиенту.
// Access-токен короткоживущий, refresh-токен хранится у клиента,
// в базе остается только его хэш.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
