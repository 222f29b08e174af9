package models

// Имена ролей фиксированы и создаются при старте сервиса.
const (
	RoleUser       = "user_role"
	RoleAdmin      = "admin_role"
	RoleSuperAdmin = "super_admin_role"
)

// Role представляет роль пользователя.
type Role struct {
	UID      string // Уникальный идентификатор роли
	RoleName string // Имя роли: user_role, admin_role или super_admin_role
}

// SeedRoleNames возвращает полный набор ролей для идемпотентного
// создания при старте приложения.
func SeedRoleNames() []string {
	return []string{RoleUser, RoleAdmin, RoleSuperAdmin}
}
