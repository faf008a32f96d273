package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safenest/internal/onboarding/models"
	"safenest/internal/platform/postgres"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
)

// PostgresStore persists onboarding requests. Writes join the transaction in ctx when present.
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

const selectColumns = `
	SELECT id, full_name, email, phone, children_count, pregnancy_status, current_situation,
		   needs_description, referral_source, status, resolved, created_at, updated_at
	FROM onboarding_requests`

func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	query := `
		INSERT INTO onboarding_requests (
			id, full_name, email, phone, children_count, pregnancy_status, current_situation,
			needs_description, referral_source, status, resolved, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.FullName,
		r.Email,
		r.Phone,
		r.ChildrenCount,
		r.PregnancyStatus,
		r.CurrentSituation,
		r.NeedsDescription,
		r.ReferralSource,
		string(r.Status),
		r.Resolved,
		r.CreatedAt,
		sql.NullTime{Time: r.UpdatedAt, Valid: !r.UpdatedAt.IsZero()},
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert onboarding request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Request) error {
	query := `
		UPDATE onboarding_requests
		SET full_name = $2, email = $3, phone = $4, children_count = $5, pregnancy_status = $6,
			current_situation = $7, needs_description = $8, referral_source = $9, status = $10,
			resolved = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.FullName,
		r.Email,
		r.Phone,
		r.ChildrenCount,
		r.PregnancyStatus,
		r.CurrentSituation,
		r.NeedsDescription,
		r.ReferralSource,
		string(r.Status),
		r.Resolved,
		sql.NullTime{Time: r.UpdatedAt, Valid: !r.UpdatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("update onboarding request: %w", err)
	}
	return requireRow(res)
}

// FindByID loads one request. Inside a transaction the row is locked until commit
// so concurrent approvals of the same request serialise.
func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	query := selectColumns + ` WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	r, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Request, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("query onboarding requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate onboarding requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, requestID id.RequestID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM onboarding_requests WHERE id = $1`, uuid.UUID(requestID))
	if err != nil {
		return fmt.Errorf("delete onboarding request: %w", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r         models.Request
		rawID     uuid.UUID
		children  sql.NullInt64
		status    string
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&rawID,
		&r.FullName,
		&r.Email,
		&r.Phone,
		&children,
		&r.PregnancyStatus,
		&r.CurrentSituation,
		&r.NeedsDescription,
		&r.ReferralSource,
		&status,
		&r.Resolved,
		&r.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan onboarding request: %w", err)
	}

	r.ID = id.RequestID(rawID)
	r.Status = models.Status(status)
	if children.Valid {
		n := int(children.Int64)
		r.ChildrenCount = &n
	}
	if updatedAt.Valid {
		r.UpdatedAt = updatedAt.Time
	}
	return &r, nil
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
