package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,TxRunner,AuditPublisher

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"safenest/internal/resident/export"
	"safenest/internal/resident/models"
	"safenest/internal/resident/service/mocks"
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
	now       time.Time
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
	s.now = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = testutil.AdminContext(s.now)

	s.mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) amandaBrown() models.Fields {
	ages := "6 months"
	exit := id.DateOf(s.now).AddMonths(6)
	return models.Fields{
		Name:             "Amanda Brown",
		ChildrenCount:    1,
		ChildrenAges:     &ages,
		MoveInDate:       id.DateOf(s.now),
		ExpectedExitDate: &exit,
	}
}

func (s *ServiceSuite) TestCreate() {
	s.Run("defaults case manager and status", func() {
		s.mockStore.EXPECT().FindByName(gomock.Any(), "Amanda Brown").Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		r, err := s.service.Create(s.ctx, s.amandaBrown())
		s.Require().NoError(err)
		s.Equal("Robin Mitchell", r.CaseManager)
		s.Equal(models.StatusActive, r.Status)
		s.Equal(s.now, r.CreatedAt)
		s.True(r.UpdatedAt.IsZero())
	})

	s.Run("folded duplicate name is a conflict", func() {
		existing := &models.Resident{ID: id.NewResidentID(), Name: "Amanda Brown"}
		s.mockStore.EXPECT().FindByName(gomock.Any(), "amanda  BROWN").Return(existing, nil)

		f := s.amandaBrown()
		f.Name = " amanda  BROWN "
		_, err := s.service.Create(s.ctx, f)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing move-in date fails before the store", func() {
		f := s.amandaBrown()
		f.MoveInDate = id.Date{}
		_, err := s.service.Create(s.ctx, f)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("resident_created is emitted inside the transaction", func() {
		s.mockStore.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, e audit.Event) error {
				s.Equal(string(audit.EventResidentCreated), e.Action)
				_, inTx := tx.From(ctx)
				s.True(inTx)
				return nil
			})

		_, err := s.service.Create(tx.WithTx(s.ctx, new(sql.Tx)), s.amandaBrown())
		s.Require().NoError(err)
	})

	s.Run("outbox failure inside a transaction aborts the create", func() {
		s.mockStore.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox insert failed"))

		_, err := s.service.Create(tx.WithTx(s.ctx, new(sql.Tx)), s.amandaBrown())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("publish failure without a transaction is only logged", func() {
		s.mockStore.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("buffer full"))

		_, err := s.service.Create(s.ctx, s.amandaBrown())
		s.NoError(err)
	})

	s.Run("duplicate lookup failure is internal", func() {
		s.mockStore.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		_, err := s.service.Create(s.ctx, s.amandaBrown())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestUpdate() {
	existing, err := models.NewResident(id.NewResidentID(), s.amandaBrown(), "Robin Mitchell", s.now.Add(-time.Hour))
	s.Require().NoError(err)

	s.Run("keeping own name is allowed", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)
		s.mockStore.EXPECT().FindByName(gomock.Any(), "Amanda Brown").Return(existing, nil)
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		f := s.amandaBrown()
		f.Status = models.StatusMovedOut
		r, err := s.service.Update(s.ctx, existing.ID, f)
		s.Require().NoError(err)
		s.Equal(models.StatusMovedOut, r.Status)
		s.Equal(s.now, r.UpdatedAt)
	})

	s.Run("exit before move-in is rejected", func() {
		f := s.amandaBrown()
		early := f.MoveInDate.AddMonths(-1)
		f.ExpectedExitDate = &early
		_, err := s.service.Update(s.ctx, existing.ID, f)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown resident", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, id.NewResidentID(), s.amandaBrown())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.mockStore.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)
	err := s.service.Delete(s.ctx, id.NewResidentID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListAndExport() {
	lisaEmail := "lisa.a@email.com"
	lisa := &models.Resident{ID: id.NewResidentID(), Name: "Lisa Anderson", Email: &lisaEmail, Status: models.StatusActive, CreatedAt: s.now.Add(-2 * time.Hour)}
	amanda := &models.Resident{ID: id.NewResidentID(), Name: "Amanda Brown", Status: models.StatusInactive, CreatedAt: s.now.Add(-time.Hour)}
	s.mockStore.EXPECT().List(gomock.Any()).Return([]*models.Resident{lisa, amanda}, nil).Times(2)

	list, err := s.service.List(s.ctx, models.ListFilter{Search: "LISA.A"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(lisa.ID, list[0].ID)

	data, err := s.service.Export(s.ctx, models.ListFilter{Status: "all"})
	s.Require().NoError(err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("Amanda Brown", rows[1][0])
}
