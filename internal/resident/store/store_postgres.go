package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"safenest/internal/platform/postgres"
	"safenest/internal/resident/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
	platformstrings "safenest/pkg/platform/strings"
	txcontext "safenest/pkg/platform/tx"
)

const sourceRequestIndex = "uq_residents_source_request"

// PostgresStore persists residents in Postgres. Writes join the transaction in ctx when present.
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
	SELECT id, name, email, phone, children_count, children_ages, move_in_date,
		   expected_exit_date, case_manager, status, source_request_id, created_at, updated_at
	FROM residents`

func (s *PostgresStore) Create(ctx context.Context, r *models.Resident) error {
	query := `
		INSERT INTO residents (
			id, name, email, phone, children_count, children_ages, move_in_date,
			expected_exit_date, case_manager, status, source_request_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (source_request_id) WHERE source_request_id IS NOT NULL DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Name,
		r.Email,
		r.Phone,
		r.ChildrenCount,
		r.ChildrenAges,
		r.MoveInDate,
		r.ExpectedExitDate,
		r.CaseManager,
		string(r.Status),
		sourceRequestArg(r.SourceRequestID),
		r.CreatedAt,
		nullTime(r),
	)
	if err != nil {
		if postgres.IsUniqueViolationOn(err, sourceRequestIndex) {
			return sentinel.ErrAlreadyUsed
		}
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert resident: %w", err)
	}
	// ON CONFLICT skips the row instead of aborting the surrounding transaction.
	if err := requireRow(res); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrAlreadyUsed
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Resident) error {
	query := `
		UPDATE residents
		SET name = $2, email = $3, phone = $4, children_count = $5, children_ages = $6,
			move_in_date = $7, expected_exit_date = $8, case_manager = $9, status = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Name,
		r.Email,
		r.Phone,
		r.ChildrenCount,
		r.ChildrenAges,
		r.MoveInDate,
		r.ExpectedExitDate,
		r.CaseManager,
		string(r.Status),
		nullTime(r),
	)
	if err != nil {
		return fmt.Errorf("update resident: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(residentID))
}

// FindByName matches on the trimmed, whitespace-collapsed, lowercased name.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Resident, error) {
	return s.findOne(ctx,
		selectColumns+` WHERE lower(regexp_replace(btrim(name), '\s+', ' ', 'g')) = $1 LIMIT 1`,
		platformstrings.Fold(name))
}

func (s *PostgresStore) FindBySourceRequest(ctx context.Context, requestID id.RequestID) (*models.Resident, error) {
	return s.findOne(ctx, selectColumns+` WHERE source_request_id = $1`, uuid.UUID(requestID))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Resident, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("query residents: %w", err)
	}
	defer rows.Close()

	var out []*models.Resident
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate residents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, residentID id.ResidentID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM residents WHERE id = $1`, uuid.UUID(residentID))
	if err != nil {
		return fmt.Errorf("delete resident: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Resident, error) {
	r, err := scanResident(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResident(row scanner) (*models.Resident, error) {
	var (
		r         models.Resident
		rawID     uuid.UUID
		status    string
		exit      id.Date
		sourceID  uuid.NullUUID
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&rawID,
		&r.Name,
		&r.Email,
		&r.Phone,
		&r.ChildrenCount,
		&r.ChildrenAges,
		&r.MoveInDate,
		&exit,
		&r.CaseManager,
		&status,
		&sourceID,
		&r.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan resident: %w", err)
	}

	r.ID = id.ResidentID(rawID)
	r.Status = models.Status(status)
	if !exit.IsZero() {
		r.ExpectedExitDate = &exit
	}
	if sourceID.Valid {
		requestID := id.RequestID(sourceID.UUID)
		r.SourceRequestID = &requestID
	}
	if updatedAt.Valid {
		r.UpdatedAt = updatedAt.Time
	}
	return &r, nil
}

func sourceRequestArg(requestID *id.RequestID) uuid.NullUUID {
	if requestID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*requestID), Valid: true}
}

func nullTime(r *models.Resident) sql.NullTime {
	return sql.NullTime{Time: r.UpdatedAt, Valid: !r.UpdatedAt.IsZero()}
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
