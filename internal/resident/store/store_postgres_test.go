package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

func TestPostgresDeleteZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM residents").WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgres(db).Delete(context.Background(), id.NewResidentID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateSourceRequestConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO residents").
		WillReturnError(&pq.Error{Code: "23505", Constraint: sourceRequestIndex})

	r := newResident("Sarah Johnson")
	requestID := id.NewRequestID()
	r.SourceRequestID = &requestID

	err = NewPostgres(db).Create(context.Background(), r)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestPostgresFindByNameFoldsArgument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM residents").
		WithArgs("sarah johnson").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgres(db).FindByName(context.Background(), " Sarah  Johnson ")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateSkippedBySourceRequestIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("ON CONFLICT").WillReturnResult(sqlmock.NewResult(0, 0))

	r := newResident("Sarah Johnson")
	requestID := id.NewRequestID()
	r.SourceRequestID = &requestID

	err = NewPostgres(db).Create(context.Background(), r)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
