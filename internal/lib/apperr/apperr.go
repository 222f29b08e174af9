// Package apperr определяет таксономию доменных ошибок сервиса.
// Сервисы оборачивают возникшие ошибки в один из sentinel-типов через
// fmt.Errorf("...: %w", apperr.ErrX), а HTTP-слой по errors.Is подбирает
// код ответа. Никакая операция не гасит ошибку молча, кроме best-effort
// отправки писем и идемпотентного закрытия подтверждения.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized неверные учетные данные, просроченный или чужой токен.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden операция запрещена: учетная запись неактивна, роль
	// не подходит либо супер-администратор уже существует.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound пользователь, роль или запись не найдены.
	ErrNotFound = errors.New("not found")
	// ErrNotAcceptable проверочный код не принят.
	ErrNotAcceptable = errors.New("not acceptable")
	// ErrInternal нарушение инварианта запуска, например отсутствие
	// предзаполненной роли.
	ErrInternal = errors.New("internal error")
	// ErrBadRequest обертка для сбоя внутри многошаговой смены почты.
	ErrBadRequest = errors.New("bad request")
)

// CodeRejectedError возвращается при неверном проверочном коде,
// пока попытки не исчерпаны. Несет число оставшихся попыток,
// чтобы клиент мог решить, повторять ли ввод.
type CodeRejectedError struct {
	AttemptsLeft int
}

func (e *CodeRejectedError) Error() string {
	return fmt.Sprintf("wrong confirmation code, %d attempts left", e.AttemptsLeft)
}

// Is сопоставляет ошибку с ErrNotAcceptable для единообразной обработки.
func (e *CodeRejectedError) Is(target error) bool {
	return target == ErrNotAcceptable
}
