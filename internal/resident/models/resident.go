package models

import (
	"strings"
	"time"

	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	platformstrings "safenest/pkg/platform/strings"
)

// Status of a resident's stay.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusMovedOut Status = "Moved Out"
)

// ParseStatus accepts any casing of a known status.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusActive, StatusInactive, StatusMovedOut} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of Active, Inactive, Moved Out")
}

// StayMonths is the default expected stay for a promoted resident.
const StayMonths = 6

// Resident is a person currently or formerly housed.
//
// Invariants:
//   - Name is non-empty
//   - MoveInDate is set
//   - ChildrenCount >= 0
//   - ExpectedExitDate, when set, is not before MoveInDate
//   - SourceRequestID is set only for residents promoted from an onboarding request
type Resident struct {
	ID               id.ResidentID `json:"id"`
	Name             string        `json:"name"`
	Email            *string       `json:"email"`
	Phone            *string       `json:"phone"`
	ChildrenCount    int           `json:"children_count"`
	ChildrenAges     *string       `json:"children_ages"`
	MoveInDate       id.Date       `json:"move_in_date"`
	ExpectedExitDate *id.Date      `json:"expected_exit_date"`
	CaseManager      string        `json:"case_manager"`
	Status           Status        `json:"status"`
	SourceRequestID  *id.RequestID `json:"source_request_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at,omitzero"`
}

// FoldedName is the key used for duplicate detection.
func (r *Resident) FoldedName() string {
	return platformstrings.Fold(r.Name)
}

// LastTouched is UpdatedAt, or CreatedAt when the record was never updated.
func (r *Resident) LastTouched() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// Fields holds the admin-editable attributes of a resident.
type Fields struct {
	Name             string
	Email            *string
	Phone            *string
	ChildrenCount    int
	ChildrenAges     *string
	MoveInDate       id.Date
	ExpectedExitDate *id.Date
	CaseManager      string
	Status           Status
}

// Validate checks the fields that every create and edit must satisfy.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if f.MoveInDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "move_in_date is required")
	}
	if f.ChildrenCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "children_count must not be negative")
	}
	if f.ExpectedExitDate != nil && f.ExpectedExitDate.Before(f.MoveInDate) {
		return dErrors.New(dErrors.CodeValidation, "expected_exit_date must not be before move_in_date")
	}
	if f.Email != nil && strings.TrimSpace(*f.Email) != "" && !strings.Contains(*f.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return err
		}
	}
	return nil
}

// NewResident builds a validated resident. Blank optional text becomes nil,
// a blank case manager takes defaultCaseManager and a blank status is Active.
func NewResident(residentID id.ResidentID, f Fields, defaultCaseManager string, now time.Time) (*Resident, error) {
	f = f.normalized(defaultCaseManager)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	r := &Resident{ID: residentID, CreatedAt: now}
	r.apply(f)
	return r, nil
}

// Replace overwrites every editable field and refreshes UpdatedAt.
func (r *Resident) Replace(f Fields, defaultCaseManager string, now time.Time) error {
	f = f.normalized(defaultCaseManager)
	if err := f.Validate(); err != nil {
		return err
	}
	r.apply(f)
	r.UpdatedAt = now
	return nil
}

func (r *Resident) apply(f Fields) {
	r.Name = f.Name
	r.Email = f.Email
	r.Phone = f.Phone
	r.ChildrenCount = f.ChildrenCount
	r.ChildrenAges = f.ChildrenAges
	r.MoveInDate = f.MoveInDate
	r.ExpectedExitDate = f.ExpectedExitDate
	r.CaseManager = f.CaseManager
	r.Status = f.Status
}

func (f Fields) normalized(defaultCaseManager string) Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = trimmedOrNil(f.Email)
	f.Phone = trimmedOrNil(f.Phone)
	f.ChildrenAges = trimmedOrNil(f.ChildrenAges)
	f.CaseManager = platformstrings.FirstNonEmpty(f.CaseManager, defaultCaseManager)
	if f.Status == "" {
		f.Status = StatusActive
	} else if st, err := ParseStatus(string(f.Status)); err == nil {
		f.Status = st
	}
	return f
}

// Promotion carries what an approved onboarding request contributes to a new resident.
type Promotion struct {
	RequestID     id.RequestID
	FullName      string
	Email         string
	Phone         string
	ChildrenCount *int
}

// Promote synthesizes the resident for an approved request: moving in today,
// expected to leave StayMonths later, Active, with the default case manager.
func Promote(residentID id.ResidentID, p Promotion, caseManager string, now time.Time) (*Resident, error) {
	today := id.DateOf(now)
	exit := today.AddMonths(StayMonths)
	children := 0
	if p.ChildrenCount != nil && *p.ChildrenCount > 0 {
		children = *p.ChildrenCount
	}
	sourceID := p.RequestID

	r, err := NewResident(residentID, Fields{
		Name:             p.FullName,
		Email:            &p.Email,
		Phone:            &p.Phone,
		ChildrenCount:    children,
		MoveInDate:       today,
		ExpectedExitDate: &exit,
		CaseManager:      caseManager,
		Status:           StatusActive,
	}, caseManager, now)
	if err != nil {
		return nil, err
	}
	r.SourceRequestID = &sourceID
	return r, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
