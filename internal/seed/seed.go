// Package seed loads the demo data the admin dashboard is shown with.
package seed

import (
	"context"
	"fmt"
	"time"

	onboardingmodels "safenest/internal/onboarding/models"
	residentmodels "safenest/internal/resident/models"
	id "safenest/pkg/domain"
)

type RequestStore interface {
	Create(ctx context.Context, r *onboardingmodels.Request) error
	List(ctx context.Context) ([]*onboardingmodels.Request, error)
}

type ResidentStore interface {
	Create(ctx context.Context, r *residentmodels.Resident) error
	List(ctx context.Context) ([]*residentmodels.Resident, error)
}

// Result counts what Demo inserted.
type Result struct {
	Requests  int
	Residents int
}

// Demo inserts three onboarding requests and two residents. Each set is
// skipped when its table already has rows, so running it twice is harmless.
func Demo(ctx context.Context, requests RequestStore, residents ResidentStore, caseManager string) (Result, error) {
	var res Result

	existing, err := requests.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list requests: %w", err)
	}
	if len(existing) == 0 {
		for _, r := range demoRequests() {
			if err := requests.Create(ctx, r); err != nil {
				return res, fmt.Errorf("seed request %s: %w", r.FullName, err)
			}
			res.Requests++
		}
	}

	current, err := residents.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list residents: %w", err)
	}
	if len(current) == 0 {
		for _, r := range demoResidents(caseManager) {
			if err := residents.Create(ctx, r); err != nil {
				return res, fmt.Errorf("seed resident %s: %w", r.Name, err)
			}
			res.Residents++
		}
	}
	return res, nil
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

func demoRequests() []*onboardingmodels.Request {
	return []*onboardingmodels.Request{
		{
			ID:               id.NewRequestID(),
			FullName:         "Sarah Johnson",
			Email:            "sarah.j@email.com",
			Phone:            "(555) 123-4567",
			ChildrenCount:    ptr(2),
			PregnancyStatus:  ptr("28 weeks"),
			CurrentSituation: "Currently staying with friend, lease ending soon",
			NeedsDescription: "Stable housing before the baby arrives",
			Status:           onboardingmodels.StatusPendingReview,
			CreatedAt:        day("2024-11-05"),
		},
		{
			ID:               id.NewRequestID(),
			FullName:         "Maria Rodriguez",
			Email:            "maria.r@email.com",
			Phone:            "(555) 234-5678",
			ChildrenCount:    ptr(1),
			PregnancyStatus:  ptr("Not pregnant"),
			CurrentSituation: "Recently left domestic violence situation",
			NeedsDescription: "Safe housing and case management",
			ReferralSource:   ptr("Local shelter"),
			Status:           onboardingmodels.StatusUnderReview,
			CreatedAt:        day("2024-11-03"),
		},
		{
			ID:               id.NewRequestID(),
			FullName:         "Jennifer Williams",
			Email:            "j.williams@email.com",
			Phone:            "(555) 345-6789",
			ChildrenCount:    ptr(0),
			PregnancyStatus:  ptr("16 weeks"),
			CurrentSituation: "Homeless, currently in shelter",
			NeedsDescription: "Housing and prenatal care support",
			Status:           onboardingmodels.StatusApproved,
			CreatedAt:        day("2024-11-01"),
		},
	}
}

func demoResidents(caseManager string) []*residentmodels.Resident {
	date := func(s string) id.Date { return id.DateOf(day(s)) }
	return []*residentmodels.Resident{
		{
			ID:               id.NewResidentID(),
			Name:             "Lisa Anderson",
			ChildrenCount:    3,
			ChildrenAges:     ptr("5, 3, 1"),
			MoveInDate:       date("2024-09-15"),
			ExpectedExitDate: ptr(date("2025-03-15")),
			CaseManager:      caseManager,
			Status:           residentmodels.StatusActive,
			CreatedAt:        day("2024-09-15"),
		},
		{
			ID:               id.NewResidentID(),
			Name:             "Amanda Brown",
			ChildrenCount:    1,
			ChildrenAges:     ptr("6 months"),
			MoveInDate:       date("2024-10-01"),
			ExpectedExitDate: ptr(date("2025-04-01")),
			CaseManager:      caseManager,
			Status:           residentmodels.StatusActive,
			CreatedAt:        day("2024-10-01"),
		},
	}
}
