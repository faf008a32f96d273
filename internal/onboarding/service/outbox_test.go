package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safenest/internal/onboarding/models"
	onboardingstore "safenest/internal/onboarding/store"
	residentstore "safenest/internal/resident/store"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/tx"
	"safenest/pkg/testutil"
)

// txRecorder notes, per action, whether Emit ran inside a SQL transaction.
type txRecorder struct {
	mu   sync.Mutex
	inTx map[string]bool
	err  error
}

func (r *txRecorder) Emit(ctx context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := tx.From(ctx)
	r.inTx[event.Action] = ok
	return r.err
}

func sarahIntake() models.Intake {
	children := 2
	return models.Intake{
		FullName:         "Sarah Johnson",
		Email:            "sarah.j@email.com",
		Phone:            "(555) 123-4567",
		ChildrenCount:    &children,
		CurrentSituation: "Staying with family temporarily",
		NeedsDescription: "Safe housing for me and my two children",
	}
}

func TestAuditEventsJoinTheWriteTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// submit, advance to Under Review, advance to Approved
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	recorder := &txRecorder{inTx: map[string]bool{}}
	svc, err := New(onboardingstore.NewInMemory(), residentstore.NewInMemory(), tx.NewSQLRunner(db),
		WithAuditPublisher(recorder),
	)
	require.NoError(t, err)
	ctx := testutil.AdminContext(time.Date(2024, 11, 20, 9, 30, 0, 0, time.UTC))

	submitted, err := svc.Submit(ctx, sarahIntake())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, submitted.ID)
	require.NoError(t, err)
	result, err := svc.Advance(ctx, submitted.ID)
	require.NoError(t, err)
	require.True(t, result.Promoted)

	for _, action := range []audit.AuditEvent{
		audit.EventOnboardingSubmitted,
		audit.EventOnboardingStatusChanged,
		audit.EventResidentPromoted,
	} {
		inTx, seen := recorder.inTx[string(action)]
		require.True(t, seen, action)
		assert.True(t, inTx, "%s emitted outside the transaction", action)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedOutboxInsertRollsBackTheWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	recorder := &txRecorder{inTx: map[string]bool{}, err: errors.New("outbox insert failed")}
	svc, err := New(onboardingstore.NewInMemory(), residentstore.NewInMemory(), tx.NewSQLRunner(db),
		WithAuditPublisher(recorder),
	)
	require.NoError(t, err)

	_, err = svc.Submit(testutil.AdminContext(time.Now()), sarahIntake())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}
