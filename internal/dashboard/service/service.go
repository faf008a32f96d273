package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	contactmodels "safenest/internal/contact/models"
	onboardingmodels "safenest/internal/onboarding/models"
	residentmodels "safenest/internal/resident/models"
	settingsmodels "safenest/internal/settings/models"
	"safenest/pkg/requestcontext"
)

const overviewTimeout = 5 * time.Second

type RequestLister interface {
	List(ctx context.Context, filter onboardingmodels.ListFilter) ([]*onboardingmodels.Request, error)
}

type ResidentLister interface {
	List(ctx context.Context, filter residentmodels.ListFilter) ([]*residentmodels.Resident, error)
}

type ContactLister interface {
	List(ctx context.Context, filter contactmodels.Filter) ([]*contactmodels.Submission, error)
}

type SettingsGetter interface {
	Get(ctx context.Context) (*settingsmodels.Settings, error)
}

// Overview is the admin landing page summary.
type Overview struct {
	// ActiveRequests counts requests not hidden by the resolved flag.
	ActiveRequests    int       `json:"active_requests"`
	PendingReview     int       `json:"pending_review"`
	ActiveResidents   int       `json:"active_residents"`
	Capacity          int       `json:"capacity"`
	CapacityRemaining int       `json:"capacity_remaining"`
	OpenContacts      int       `json:"open_contacts"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type Service struct {
	requests  RequestLister
	residents ResidentLister
	contacts  ContactLister
	settings  SettingsGetter
	tracer    trace.Tracer
}

func New(requests RequestLister, residents ResidentLister, contacts ContactLister, settings SettingsGetter) *Service {
	return &Service{
		requests:  requests,
		residents: residents,
		contacts:  contacts,
		settings:  settings,
		tracer:    otel.Tracer("safenest/dashboard"),
	}
}

// Overview fetches the four sources in parallel. The first failure cancels
// the rest and is returned as is.
func (s *Service) Overview(ctx context.Context) (_ *Overview, err error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.overview")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "overview failed")
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, overviewTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	var (
		requests  []*onboardingmodels.Request
		residents []*residentmodels.Resident
		contacts  []*contactmodels.Submission
		settings  *settingsmodels.Settings
	)
	g.Go(func() error {
		var err error
		requests, err = s.requests.List(ctx, onboardingmodels.ListFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		residents, err = s.residents.List(ctx, residentmodels.ListFilter{Status: string(residentmodels.StatusActive)})
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.contacts.List(ctx, contactmodels.FilterNotResolved)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settings.Get(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Overview{
		ActiveRequests:  len(requests),
		ActiveResidents: len(residents),
		Capacity:        settings.Capacity,
		OpenContacts:    len(contacts),
		GeneratedAt:     requestcontext.Now(ctx),
	}
	for _, r := range requests {
		if r.Status == onboardingmodels.StatusPendingReview {
			out.PendingReview++
		}
	}
	out.CapacityRemaining = max(out.Capacity-out.ActiveResidents, 0)
	return out, nil
}
