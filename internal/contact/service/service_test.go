package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,TxRunner,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"safenest/internal/contact/models"
	"safenest/internal/contact/service/mocks"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	"safenest/pkg/platform/tx"
	"safenest/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	mockTx    *mocks.MockTxRunner
	mockAudit *mocks.MockAuditPublisher
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockTx = mocks.NewMockTxRunner(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.mockStore, s.mockTx,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
	)
	s.ctx = testutil.AdminContext(time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC))

	s.mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func fields() models.Fields {
	return models.Fields{Name: "Grace Lee", Email: "grace@email.com", Subject: "Volunteering", Message: "How can I help?"}
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("stores and audits", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventContactSubmitted), e.Action)
				return nil
			})

		sub, err := s.service.Submit(s.ctx, fields())
		s.Require().NoError(err)
		s.False(sub.Resolved)
	})

	s.Run("validation happens before the store", func() {
		f := fields()
		f.Subject = ""
		_, err := s.service.Submit(s.ctx, f)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("audit failure does not fail the submission", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("buffer full"))

		_, err := s.service.Submit(s.ctx, fields())
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestUpdate() {
	existing, err := models.NewSubmission(id.NewContactID(), fields(), time.Now())
	s.Require().NoError(err)

	s.Run("replaces fields and resolved flag", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		f := fields()
		f.Message = "Updated"
		sub, err := s.service.Update(s.ctx, existing.ID, f, true)
		s.Require().NoError(err)
		s.Equal("Updated", sub.Message)
		s.True(sub.Resolved)
	})

	s.Run("missing submission", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, id.NewContactID(), fields(), false)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("zero rows is not found, not internal", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)
		err := s.service.Delete(s.ctx, id.NewContactID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("backend failure is internal", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
		err := s.service.Delete(s.ctx, id.NewContactID())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestList() {
	older := &models.Submission{ID: id.NewContactID(), CreatedAt: time.Now().Add(-time.Hour), Resolved: true}
	newer := &models.Submission{ID: id.NewContactID(), CreatedAt: time.Now()}
	s.mockStore.EXPECT().List(gomock.Any()).Return([]*models.Submission{older, newer}, nil)

	subs, err := s.service.List(s.ctx, models.FilterNotResolved)
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal(newer.ID, subs[0].ID)
}

// publisherFunc adapts a function to AuditPublisher.
type publisherFunc func(ctx context.Context, event audit.Event) error

func (f publisherFunc) Emit(ctx context.Context, event audit.Event) error {
	return f(ctx, event)
}

func TestOutboxRowCommitsWithSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var emittedInTx bool
	svc := New(&stubStore{}, tx.NewSQLRunner(db),
		WithAuditPublisher(publisherFunc(func(ctx context.Context, _ audit.Event) error {
			_, emittedInTx = tx.From(ctx)
			return nil
		})),
	)

	_, err = svc.Submit(testutil.AdminContext(time.Now()), fields())
	require.NoError(t, err)
	assert.True(t, emittedInTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxFailureRollsBackDeletion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := New(&stubStore{}, tx.NewSQLRunner(db),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisherFunc(func(context.Context, audit.Event) error {
			return errors.New("outbox insert failed")
		})),
	)

	err = svc.Delete(testutil.AdminContext(time.Now()), id.NewContactID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// stubStore accepts every write.
type stubStore struct{}

func (stubStore) Create(context.Context, *models.Submission) error { return nil }
func (stubStore) Update(context.Context, *models.Submission) error { return nil }
func (stubStore) FindByID(context.Context, id.ContactID) (*models.Submission, error) {
	return nil, sentinel.ErrNotFound
}
func (stubStore) List(context.Context) ([]*models.Submission, error) { return nil, nil }
func (stubStore) Delete(context.Context, id.ContactID) error { return nil }
