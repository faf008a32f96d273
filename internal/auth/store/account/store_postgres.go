package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"safenest/internal/auth/models"
	"safenest/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT email, password_hash, created_at FROM admin_accounts WHERE email = $1`,
		models.NormalizeEmail(email),
	).Scan(&a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin account: %w", err)
	}
	return &a, nil
}

// Save upserts by email, replacing the password hash.
func (s *PostgresStore) Save(ctx context.Context, a *models.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_accounts (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, models.NormalizeEmail(a.Email), a.PasswordHash, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save admin account: %w", err)
	}
	return nil
}
