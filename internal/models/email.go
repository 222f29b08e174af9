package models

// Типы писем, публикуемых в очередь уведомлений.
const (
	EmailKindConfirmationCode   = "confirmation_code"
	EmailKindSuperAdminPassword = "super_admin_password"
)

// EmailMessage сообщение для воркера отправки писем.
// Публикуется в RabbitMQ после фиксации изменений в базе,
// доставка выполняется по принципу best-effort.
type EmailMessage struct {
	Kind     string `json:"kind"`     // Тип письма
	Email    string `json:"email"`    // Адрес получателя
	Username string `json:"username"` // Имя пользователя для текста письма
	Code     string `json:"code,omitempty"`     // Проверочный код
	Password string `json:"password,omitempty"` // Одноразовый пароль супер-администратора
}
