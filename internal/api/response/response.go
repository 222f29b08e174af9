// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
)

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKResponse описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK").
// Поле Data — данные ответа (опционально, при успехе).
type OKResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("Error").
// Поле Error  — сообщение ошибки ответа.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
	// AttemptsLeft число оставшихся попыток ввода проверочного кода,
	// заполняется только при отклоненном коде.
	AttemptsLeft *int `json:"attempts_left,omitempty"`
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) OKResponse {
	return OKResponse{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FromError подбирает HTTP-код и тело ответа по доменной ошибке.
// Отклоненный проверочный код дополнительно несет число оставшихся попыток.
func FromError(err error) (int, ErrorResponse) {
	var rejected *apperr.CodeRejectedError
	if errors.As(err, &rejected) {
		resp := Error(rejected.Error())
		resp.AttemptsLeft = &rejected.AttemptsLeft
		return http.StatusNotAcceptable, resp
	}

	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, Error("unauthorized")
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, Error("forbidden")
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, Error("not found")
	case errors.Is(err, apperr.ErrNotAcceptable):
		return http.StatusNotAcceptable, Error("not acceptable")
	case errors.Is(err, apperr.ErrBadRequest):
		return http.StatusBadRequest, Error("bad request")
	default:
		return http.StatusInternalServerError, Error("internal error")
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has wrong length", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
