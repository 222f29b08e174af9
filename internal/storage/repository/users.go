package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// CreateUser сохраняет нового пользователя вместе с его ролью и ссылкой
// на подтверждение, возвращает UID созданной записи.
func (s *Storage) CreateUser(ctx context.Context, user models.User, roleUID string, confirmationUID *string) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newUID string
	query := `INSERT INTO users (fullname, username, email, password_hash, status, confirmation_uid)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := tx.QueryRowContext(ctx, query,
		user.Fullname, user.Username, user.Email, user.PasswordHash, user.Status,
		confirmationUID).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_uid, role_uid) VALUES ($1, $2)`,
		newUID, roleUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username вместе
// с ролями и текущим подтверждением.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	return s.getUser(ctx, op, `WHERE u.username = $1`, username)
}

// GetUserByUID возвращает пользователя по его UID вместе
// с ролями и текущим подтверждением.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	return s.getUser(ctx, op, `WHERE u.uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.uid, u.fullname, u.username, u.email, u.password_hash, u.status,
			      u.refresh_token_hash, u.created_at,
			      c.uid, c.code, c.is_active, c.attempts, c.confirmation_status,
			      c.expiration_datetime, c.created_at
			  FROM users u
			  LEFT JOIN confirmations c ON c.uid = u.confirmation_uid ` + where
	row := s.DB.QueryRowContext(ctx, query, arg)

	u := &models.User{}
	var refreshTokenHash sql.NullString
	var confUID, confCode sql.NullString
	var confActive sql.NullBool
	var confAttempts sql.NullInt64
	var confStatus sql.NullString
	var confExpiration, confCreatedAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Fullname, &u.Username, &u.Email, &u.PasswordHash,
		&u.Status, &refreshTokenHash, &u.CreatedAt,
		&confUID, &confCode, &confActive, &confAttempts, &confStatus,
		&confExpiration, &confCreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if refreshTokenHash.Valid {
		u.RefreshTokenHash = &refreshTokenHash.String
	}
	if confUID.Valid {
		u.Confirmation = &models.Confirmation{
			UID:                confUID.String,
			Code:               confCode.String,
			IsActive:           confActive.Bool,
			Attempts:           int(confAttempts.Int64),
			ConfirmationStatus: models.ConfirmationStatus(confStatus.String),
			CreatedAt:          confCreatedAt.Time,
		}
		if confExpiration.Valid {
			u.Confirmation.ExpirationDateTime = &confExpiration.Time
		}
	}

	roles, err := s.getUserRoles(ctx, u.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Roles = roles
	return u, nil
}

func (s *Storage) getUserRoles(ctx context.Context, userUID string) ([]models.Role, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.uid, r.role_name
		FROM roles r
		JOIN user_roles ur ON ur.role_uid = r.uid
		WHERE ur.user_uid = $1
		ORDER BY r.role_name`, userUID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.UID, &r.RoleName); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountUsersByRoleAndStatuses считает пользователей с заданной ролью
// в одном из перечисленных статусов. Используется как защита от
// повторного создания супер-администратора.
func (s *Storage) CountUsersByRoleAndStatuses(ctx context.Context, roleName string, statuses []models.UserStatus) (int, error) {
	const op = "storage.CountUsersByRoleAndStatuses"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM users u
			  JOIN user_roles ur ON ur.user_uid = u.uid
			  JOIN roles r ON r.uid = ur.role_uid
			  WHERE r.role_name = $1 AND u.status = ANY($2)`
	statusStrings := make([]string, 0, len(statuses))
	for _, st := range statuses {
		statusStrings = append(statusStrings, string(st))
	}
	var count int
	if err := s.DB.QueryRowContext(ctx, query, roleName, statusStrings).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// UpdateRefreshTokenHash сохраняет хэш текущего refresh-токена
// пользователя; nil очищает его (logout).
func (s *Storage) UpdateRefreshTokenHash(ctx context.Context, userUID string, hash *string) error {
	const op = "storage.UpdateRefreshTokenHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET refresh_token_hash = $1 WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, hash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateUserStatus обновляет статус жизненного цикла пользователя.
func (s *Storage) UpdateUserStatus(ctx context.Context, userUID string, status models.UserStatus) error {
	const op = "storage.UpdateUserStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET status = $1 WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, status, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateUserEmailAndConfirmation меняет почту пользователя и ссылку
// на новое подтверждение одним запросом.
func (s *Storage) UpdateUserEmailAndConfirmation(ctx context.Context, userUID, email, confirmationUID string) error {
	const op = "storage.UpdateUserEmailAndConfirmation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET email = $1, confirmation_uid = $2 WHERE uid = $3`
	_, err := s.DB.ExecContext(ctx, query, email, confirmationUID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddRoleToUser добавляет роль пользователю. Повторное добавление
// той же роли не считается ошибкой.
func (s *Storage) AddRoleToUser(ctx context.Context, userUID, roleUID string) error {
	const op = "storage.AddRoleToUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_roles (user_uid, role_uid) VALUES ($1, $2)
			  ON CONFLICT DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query, userUID, roleUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser удаляет пользователя и его связки с ролями.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
