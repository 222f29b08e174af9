package models

import "time"

// ConfirmationStatus статус проверочного кода.
type ConfirmationStatus string

const (
	// ConfirmationPending код выдан, попытки еще не исчерпаны.
	ConfirmationPending ConfirmationStatus = "pending"
	// ConfirmationActivated код успешно подтвержден, запись терминальна.
	ConfirmationActivated ConfirmationStatus = "activated"
	// ConfirmationDeclined попытки исчерпаны либо запись закрыта, терминальна.
	ConfirmationDeclined ConfirmationStatus = "declined"
)

// Confirmation представляет одноразовый проверочный код для почты.
// После перехода в activated или declined запись больше не изменяется.
type Confirmation struct {
	UID                string             // Уникальный идентификатор
	Code               string             // Шестизначный проверочный код
	IsActive           bool               // false — запись терминальна
	Attempts           int                // Оставшиеся попытки, начинается с 3
	ConfirmationStatus ConfirmationStatus // pending, activated или declined
	ExpirationDateTime *time.Time         // Опциональный срок действия
	CreatedAt          time.Time
}
