package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// CreateConfirmation сохраняет новое подтверждение и возвращает запись с UID.
func (s *Storage) CreateConfirmation(ctx context.Context, conf models.Confirmation) (*models.Confirmation, error) {
	const op = "storage.CreateConfirmation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO confirmations (code, is_active, attempts, confirmation_status, expiration_datetime)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid, created_at`
	if err := s.DB.QueryRowContext(ctx, query,
		conf.Code, conf.IsActive, conf.Attempts, conf.ConfirmationStatus,
		conf.ExpirationDateTime).Scan(&conf.UID, &conf.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &conf, nil
}

// GetConfirmationByUID возвращает подтверждение по его UID.
func (s *Storage) GetConfirmationByUID(ctx context.Context, confirmationUID string) (*models.Confirmation, error) {
	const op = "storage.GetConfirmationByUID"
	return s.getConfirmation(ctx, op, `WHERE uid = $1`, confirmationUID)
}

// GetActiveConfirmationByCode возвращает активное подтверждение
// с указанным кодом. Используется при генерации кода для проверки
// уникальности среди активных записей.
func (s *Storage) GetActiveConfirmationByCode(ctx context.Context, code string) (*models.Confirmation, error) {
	const op = "storage.GetActiveConfirmationByCode"
	return s.getConfirmation(ctx, op, `WHERE code = $1 AND is_active = true`, code)
}

func (s *Storage) getConfirmation(ctx context.Context, op, where string, arg any) (*models.Confirmation, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, code, is_active, attempts, confirmation_status, expiration_datetime, created_at
			  FROM confirmations ` + where
	row := s.DB.QueryRowContext(ctx, query, arg)

	c := &models.Confirmation{}
	var expiration sql.NullTime
	if err := row.Scan(&c.UID, &c.Code, &c.IsActive, &c.Attempts,
		&c.ConfirmationStatus, &expiration, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expiration.Valid {
		c.ExpirationDateTime = &expiration.Time
	}
	return c, nil
}

// UpdateConfirmationAttempts сохраняет оставшееся число попыток.
func (s *Storage) UpdateConfirmationAttempts(ctx context.Context, confirmationUID string, attempts int) error {
	const op = "storage.UpdateConfirmationAttempts"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE confirmations SET attempts = $1 WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, attempts, confirmationUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeactivateConfirmation переводит подтверждение в терминальное
// состояние с указанным статусом. Отсутствие записи с таким UID не
// считается ошибкой: деактивация идемпотентна и используется в том
// числе для закрытия устаревшего кода перед выпуском нового.
func (s *Storage) DeactivateConfirmation(ctx context.Context, confirmationUID string, status models.ConfirmationStatus) error {
	const op = "storage.DeactivateConfirmation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE confirmations
			  SET is_active = false, confirmation_status = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, status, confirmationUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
