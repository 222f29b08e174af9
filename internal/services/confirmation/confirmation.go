// Package services содержит логику бизнес-уровня для работы с
// подтверждениями электронной почты: выпуск одноразовых кодов и
// конечный автомат попыток ввода.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

const (
	// initialAttempts число попыток ввода кода при выпуске.
	initialAttempts = 3
	// maxGenerateAttempts ограничение на перегенерацию кода при
	// коллизии с уже активным кодом.
	maxGenerateAttempts = 10
)

// ConfirmationRepository описывает контракт для работы с подтверждениями в базе данных.
type ConfirmationRepository interface {
	CreateConfirmation(ctx context.Context, conf models.Confirmation) (*models.Confirmation, error)
	GetConfirmationByUID(ctx context.Context, confirmationUID string) (*models.Confirmation, error)
	GetActiveConfirmationByCode(ctx context.Context, code string) (*models.Confirmation, error)
	UpdateConfirmationAttempts(ctx context.Context, confirmationUID string, attempts int) error
	DeactivateConfirmation(ctx context.Context, confirmationUID string, status models.ConfirmationStatus) error
}

// ConfirmationService управляет одноразовыми проверочными кодами.
type ConfirmationService struct {
	confirmations ConfirmationRepository
}

// NewConfirmationService создает новый экземпляр ConfirmationService.
func NewConfirmationService(confirmations ConfirmationRepository) *ConfirmationService {
	return &ConfirmationService{confirmations: confirmations}
}

// Issue выпускает новое подтверждение с кодом, уникальным среди
// активных записей. При коллизии код генерируется заново, не более
// maxGenerateAttempts раз.
func (s *ConfirmationService) Issue(ctx context.Context) (*models.Confirmation, error) {
	const op = "confirmation.Issue"

	for range maxGenerateAttempts {
		code, err := generateRandomCode()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		_, err = s.confirmations.GetActiveConfirmationByCode(ctx, code)
		if err == nil {
			// код уже занят активной записью
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return s.confirmations.CreateConfirmation(ctx, models.Confirmation{
			Code:               code,
			IsActive:           true,
			Attempts:           initialAttempts,
			ConfirmationStatus: models.ConfirmationPending,
		})
	}
	return nil, fmt.Errorf("%s: could not generate unique code after %d attempts", op, maxGenerateAttempts)
}

// Close идемпотентно закрывает подтверждение: запись становится
// неактивной со статусом declined. Вызывается перед выпуском нового
// кода для того же пользователя. Несуществующий UID — локальный no-op.
func (s *ConfirmationService) Close(ctx context.Context, confirmationUID string) error {
	const op = "confirmation.Close"
	if err := s.confirmations.DeactivateConfirmation(ctx, confirmationUID, models.ConfirmationDeclined); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Confirm выполняет попытку подтверждения кода. Переходы монотонны:
// pending -> pending (неверный код, есть попытки), pending -> declined
// (попытки исчерпаны), pending -> activated (код верен). Из declined
// и activated переходов нет.
func (s *ConfirmationService) Confirm(ctx context.Context, code string, conf *models.Confirmation) (*models.Confirmation, error) {
	const op = "confirmation.Confirm"

	if !conf.IsActive {
		return nil, fmt.Errorf("%s: %w: code is inactive", op, apperr.ErrBadRequest)
	}

	switch {
	case conf.Code != code && conf.Attempts > 1:
		if err := s.confirmations.UpdateConfirmationAttempts(ctx, conf.UID, conf.Attempts-1); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case conf.Code != code && conf.Attempts == 1:
		if err := s.confirmations.UpdateConfirmationAttempts(ctx, conf.UID, 0); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.confirmations.DeactivateConfirmation(ctx, conf.UID, models.ConfirmationDeclined); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		if err := s.confirmations.DeactivateConfirmation(ctx, conf.UID, models.ConfirmationActivated); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated, err := s.confirmations.GetConfirmationByUID(ctx, conf.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// generateRandomCode возвращает случайный шестизначный код.
func generateRandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
