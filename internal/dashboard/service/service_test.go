package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RequestLister,ResidentLister,ContactLister,SettingsGetter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	contactmodels "safenest/internal/contact/models"
	"safenest/internal/dashboard/service/mocks"
	onboardingmodels "safenest/internal/onboarding/models"
	residentmodels "safenest/internal/resident/models"
	settingsmodels "safenest/internal/settings/models"
	"safenest/pkg/requestcontext"
)

type OverviewSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	requests  *mocks.MockRequestLister
	residents *mocks.MockResidentLister
	contacts  *mocks.MockContactLister
	settings  *mocks.MockSettingsGetter
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestOverviewSuite(t *testing.T) {
	suite.Run(t, new(OverviewSuite))
}

func (s *OverviewSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.requests = mocks.NewMockRequestLister(s.ctrl)
	s.residents = mocks.NewMockResidentLister(s.ctrl)
	s.contacts = mocks.NewMockContactLister(s.ctrl)
	s.settings = mocks.NewMockSettingsGetter(s.ctrl)
	s.service = New(s.requests, s.residents, s.contacts, s.settings)
	s.now = time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *OverviewSuite) TestCounts() {
	s.requests.EXPECT().List(gomock.Any(), onboardingmodels.ListFilter{}).Return([]*onboardingmodels.Request{
		{FullName: "Sarah Johnson", Status: onboardingmodels.StatusPendingReview},
		{FullName: "Maria Rodriguez", Status: onboardingmodels.StatusUnderReview},
		{FullName: "Lisa Anderson", Status: onboardingmodels.StatusPendingReview},
	}, nil)
	s.residents.EXPECT().List(gomock.Any(), residentmodels.ListFilter{Status: "Active"}).Return([]*residentmodels.Resident{
		{Name: "Jennifer Williams"}, {Name: "Amanda Brown"},
	}, nil)
	s.contacts.EXPECT().List(gomock.Any(), contactmodels.FilterNotResolved).Return([]*contactmodels.Submission{{Name: "Grace Lee"}}, nil)
	s.settings.EXPECT().Get(gomock.Any()).Return(&settingsmodels.Settings{Capacity: 12}, nil)

	out, err := s.service.Overview(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, out.ActiveRequests)
	s.Equal(2, out.PendingReview)
	s.Equal(2, out.ActiveResidents)
	s.Equal(12, out.Capacity)
	s.Equal(10, out.CapacityRemaining)
	s.Equal(1, out.OpenContacts)
	s.Equal(s.now, out.GeneratedAt)
}

func (s *OverviewSuite) TestCapacityRemainingNeverNegative() {
	s.requests.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.residents.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*residentmodels.Resident{{}, {}, {}}, nil)
	s.contacts.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.settings.EXPECT().Get(gomock.Any()).Return(&settingsmodels.Settings{Capacity: 2}, nil)

	out, err := s.service.Overview(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, out.CapacityRemaining)
}

func (s *OverviewSuite) TestSingleFailureFailsOverview() {
	backend := errors.New("residents unavailable")
	s.requests.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	s.residents.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, backend)
	s.contacts.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	s.settings.EXPECT().Get(gomock.Any()).Return(&settingsmodels.Settings{Capacity: 12}, nil).AnyTimes()

	out, err := s.service.Overview(s.ctx)
	s.ErrorIs(err, backend)
	s.Nil(out)
}
