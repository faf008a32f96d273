package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safenest/internal/contact/models"
	"safenest/internal/platform/postgres"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
)

// PostgresStore persists contact submissions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `SELECT id, name, email, phone, subject, message, resolved, created_at FROM contact_submissions`

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO contact_submissions (id, name, email, phone, subject, message, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(sub.ID), sub.Name, sub.Email, sub.Phone, sub.Subject, sub.Message, sub.Resolved, sub.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, sub *models.Submission) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE contact_submissions
		SET name = $2, email = $3, phone = $4, subject = $5, message = $6, resolved = $7
		WHERE id = $1
	`, uuid.UUID(sub.ID), sub.Name, sub.Email, sub.Phone, sub.Subject, sub.Message, sub.Resolved)
	if err != nil {
		return fmt.Errorf("update contact submission: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, contactID id.ContactID) (*models.Submission, error) {
	sub, err := scanSubmission(s.execer(ctx).QueryRowContext(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(contactID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return sub, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Submission, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query contact submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact submissions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, contactID id.ContactID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM contact_submissions WHERE id = $1`, uuid.UUID(contactID))
	if err != nil {
		return fmt.Errorf("delete contact submission: %w", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		sub   models.Submission
		rawID uuid.UUID
	)
	err := row.Scan(&rawID, &sub.Name, &sub.Email, &sub.Phone, &sub.Subject, &sub.Message, &sub.Resolved, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan contact submission: %w", err)
	}
	sub.ID = id.ContactID(rawID)
	return &sub, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
