package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,ResidentStore,TxRunner,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"safenest/internal/onboarding/models"
	"safenest/internal/onboarding/service/mocks"
	residentmodels "safenest/internal/resident/models"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	"safenest/pkg/testutil"
)

// Unit tests cover ordering and failure handling inside the promotion
// transaction, which in-memory scenario tests cannot force.

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockRequests  *mocks.MockStore
	mockResidents *mocks.MockResidentStore
	mockTx        *mocks.MockTxRunner
	mockAudit     *mocks.MockAuditPublisher
	service       *Service
	now           time.Time
	ctx           context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRequests = mocks.NewMockStore(s.ctrl)
	s.mockResidents = mocks.NewMockResidentStore(s.ctrl)
	s.mockTx = mocks.NewMockTxRunner(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)

	var err error
	s.service, err = New(s.mockRequests, s.mockResidents, s.mockTx,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
	)
	s.Require().NoError(err)

	s.now = time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)
	s.ctx = testutil.AdminContext(s.now)

	s.mockTx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) underReview() *models.Request {
	children := 2
	r, err := models.NewRequest(id.NewRequestID(), models.Intake{
		FullName:         "Sarah Johnson",
		Email:            "sarah.j@email.com",
		Phone:            "(555) 123-4567",
		ChildrenCount:    &children,
		CurrentSituation: "Staying with family temporarily",
		NeedsDescription: "Safe housing for me and my two children",
	}, s.now.Add(-48*time.Hour))
	s.Require().NoError(err)
	r.Status = models.StatusUnderReview
	return r
}

func (s *ServiceSuite) TestNew() {
	s.Run("requires stores and tx runner", func() {
		_, err := New(nil, s.mockResidents, s.mockTx)
		s.Error(err)
		_, err = New(s.mockRequests, nil, s.mockTx)
		s.Error(err)
		_, err = New(s.mockRequests, s.mockResidents, nil)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("invalid intake never reaches the store", func() {
		_, err := s.service.Submit(s.ctx, models.Intake{FullName: "Sarah Johnson"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("stores a pending request and emits audit", func() {
		s.mockRequests.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventOnboardingSubmitted), e.Action)
				return nil
			})

		r, err := s.service.Submit(s.ctx, models.Intake{
			FullName:         "Maria Rodriguez",
			Email:            "maria.r@email.com",
			Phone:            "(555) 234-5678",
			CurrentSituation: "Leaving an unsafe home",
			NeedsDescription: "Housing and counseling",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPendingReview, r.Status)
		s.Equal(s.now, r.CreatedAt)
	})

	s.Run("store failure is internal", func() {
		s.mockRequests.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		_, err := s.service.Submit(s.ctx, models.Intake{
			FullName: "A", Email: "a@b.c", Phone: "1", CurrentSituation: "x", NeedsDescription: "y",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestAdvancePromotion() {
	s.Run("approval creates resident before saving status", func() {
		r := s.underReview()
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		gomock.InOrder(
			s.mockResidents.EXPECT().FindBySourceRequest(gomock.Any(), r.ID).Return(nil, sentinel.ErrNotFound),
			s.mockResidents.EXPECT().FindByName(gomock.Any(), "Sarah Johnson").Return(nil, sentinel.ErrNotFound),
			s.mockResidents.EXPECT().Create(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, res *residentmodels.Resident) error {
					s.Equal("Sarah Johnson", res.Name)
					s.Equal(2, res.ChildrenCount)
					s.Equal("Robin Mitchell", res.CaseManager)
					s.Equal(residentmodels.StatusActive, res.Status)
					s.Equal(id.DateOf(s.now), res.MoveInDate)
					s.Equal(id.DateOf(s.now).AddMonths(6), *res.ExpectedExitDate)
					s.Equal(r.ID, *res.SourceRequestID)
					return nil
				}),
			s.mockRequests.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil),
		)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		result, err := s.service.Advance(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, result.Request.Status)
		s.True(result.Promoted)
	})

	s.Run("existing resident by name skips creation", func() {
		r := s.underReview()
		existing := &residentmodels.Resident{ID: id.NewResidentID(), Name: "sarah johnson"}
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockResidents.EXPECT().FindBySourceRequest(gomock.Any(), r.ID).Return(nil, sentinel.ErrNotFound)
		s.mockResidents.EXPECT().FindByName(gomock.Any(), "Sarah Johnson").Return(existing, nil)
		s.mockRequests.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Advance(s.ctx, r.ID)
		s.Require().NoError(err)
		s.False(result.Promoted)
		s.Equal(existing.ID, result.Resident.ID)
	})

	s.Run("failing existence check aborts before any write", func() {
		r := s.underReview()
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockResidents.EXPECT().FindBySourceRequest(gomock.Any(), r.ID).Return(nil, errors.New("connection reset"))

		_, err := s.service.Advance(s.ctx, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("failing insert aborts the status update", func() {
		r := s.underReview()
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockResidents.EXPECT().FindBySourceRequest(gomock.Any(), r.ID).Return(nil, sentinel.ErrNotFound)
		s.mockResidents.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockResidents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.Advance(s.ctx, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("concurrent promotion counts as already promoted", func() {
		r := s.underReview()
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockResidents.EXPECT().FindBySourceRequest(gomock.Any(), r.ID).Return(nil, sentinel.ErrNotFound)
		s.mockResidents.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockResidents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		s.mockRequests.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Advance(s.ctx, r.ID)
		s.Require().NoError(err)
		s.False(result.Promoted)
	})

	s.Run("advancing an approved request is a conflict", func() {
		r := s.underReview()
		r.Status = models.StatusApproved
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)

		_, err := s.service.Advance(s.ctx, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown request is not found", func() {
		requestID := id.NewRequestID()
		s.mockRequests.EXPECT().FindByID(gomock.Any(), requestID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Advance(s.ctx, requestID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdate() {
	intake := models.Intake{
		FullName:         "Sarah Johnson",
		Email:            "sarah.j@email.com",
		Phone:            "(555) 123-4567",
		CurrentSituation: "Staying with family temporarily",
		NeedsDescription: "Safe housing",
	}

	s.Run("re-saving an approved request never promotes", func() {
		r := s.underReview()
		r.Status = models.StatusApproved
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockRequests.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Update(s.ctx, r.ID, intake, models.StatusApproved)
		s.Require().NoError(err)
		s.False(result.Promoted)
		s.Nil(result.Resident)
	})

	s.Run("backward correction is allowed", func() {
		r := s.underReview()
		r.Status = models.StatusApproved
		s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
		s.mockRequests.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Update(s.ctx, r.ID, intake, models.StatusPendingReview)
		s.Require().NoError(err)
		s.Equal(models.StatusPendingReview, result.Request.Status)
	})

	s.Run("invalid fields fail before the store", func() {
		bad := intake
		bad.Email = "not-an-email"
		_, err := s.service.Update(s.ctx, id.NewRequestID(), bad, models.StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown status fails before the store", func() {
		_, err := s.service.Update(s.ctx, id.NewRequestID(), intake, models.Status("Rejected"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("zero rows is not found", func() {
		requestID := id.NewRequestID()
		s.mockRequests.EXPECT().Delete(gomock.Any(), requestID).Return(sentinel.ErrNotFound)

		err := s.service.Delete(s.ctx, requestID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("emits record_deleted", func() {
		requestID := id.NewRequestID()
		s.mockRequests.EXPECT().Delete(gomock.Any(), requestID).Return(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventRecordDeleted), e.Action)
				s.Equal(testutil.AdminEmail, e.ActorID)
				return nil
			})

		s.NoError(s.service.Delete(s.ctx, requestID))
	})
}

func (s *ServiceSuite) TestReplyLink() {
	r := s.underReview()
	s.mockRequests.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)

	link, err := s.service.ReplyLink(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Contains(link, "mailto:sarah.j@email.com?subject=Your%20Onboarding%20Request")
	s.Contains(link, "Hi%20Sarah%2C")
}
