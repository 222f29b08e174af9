// Package models содержит доменную модель сервиса учетных записей:
// пользователей, роли и подтверждения электронной почты.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// UserStatus статус жизненного цикла учетной записи.
type UserStatus string

const (
	// StatusOnCheck учетная запись создана, почта еще не подтверждена.
	StatusOnCheck UserStatus = "on_check"
	// StatusActive почта подтверждена либо активирована супер-администратором.
	StatusActive UserStatus = "active"
	// StatusInactive учетная запись отключена администратором.
	StatusInactive UserStatus = "inactive"
	// StatusDeleted учетная запись помечена удаленной.
	StatusDeleted UserStatus = "deleted"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID              string        // Уникальный идентификатор пользователя
	Fullname         string        // Полное имя
	Username         string        // Имя пользователя (уникальное)
	Email            string        // Электронная почта (уникальная)
	PasswordHash     string        // Хэш пароля пользователя
	Status           UserStatus    // Статус жизненного цикла
	RefreshTokenHash *string       // Хэш текущего refresh-токена, nil после logout
	Roles            []Role        // Роли пользователя (многие-ко-многим)
	Confirmation     *Confirmation // Текущее подтверждение почты, если есть
	CreatedAt        time.Time
}

// RoleNames возвращает имена ролей пользователя для claims токена.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

// HasRole проверяет наличие роли у пользователя.
func (u *User) HasRole(roleName string) bool {
	for _, r := range u.Roles {
		if r.RoleName == roleName {
			return true
		}
	}
	return false
}
