package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// GetRoleByName возвращает роль по её имени.
func (s *Storage) GetRoleByName(ctx context.Context, roleName string) (*models.Role, error) {
	const op = "storage.GetRoleByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, role_name FROM roles WHERE role_name = $1`
	r := &models.Role{}
	if err := s.DB.QueryRowContext(ctx, query, roleName).Scan(&r.UID, &r.RoleName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// SeedRoles идемпотентно создает фиксированный набор ролей.
// Вызывается один раз при старте приложения.
func (s *Storage) SeedRoles(ctx context.Context) error {
	const op = "storage.SeedRoles"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO roles (role_name) VALUES ($1)
			  ON CONFLICT (role_name) DO NOTHING`
	for _, roleName := range models.SeedRoleNames() {
		if _, err := s.DB.ExecContext(ctx, query, roleName); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
