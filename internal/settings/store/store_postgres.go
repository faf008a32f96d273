package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"safenest/internal/settings/models"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
)

// PostgresStore keeps settings in the id = 1 row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT capacity, contact_email, updated_at FROM settings WHERE id = 1`,
	).Scan(&st.Capacity, &st.ContactEmail, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return &st, nil
}

// Save upserts the singleton row, inside the caller's transaction when ctx carries one.
func (s *PostgresStore) Save(ctx context.Context, st *models.Settings) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO settings (id, capacity, contact_email, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET capacity = EXCLUDED.capacity,
			contact_email = EXCLUDED.contact_email,
			updated_at = EXCLUDED.updated_at
	`, st.Capacity, st.ContactEmail, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
