package models

import (
	"fmt"
	"strings"
	"time"

	residentmodels "safenest/internal/resident/models"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
)

// Status is the review state of an onboarding request.
type Status string

const (
	StatusPendingReview Status = "Pending Review"
	StatusUnderReview   Status = "Under Review"
	StatusApproved      Status = "Approved"
)

// ParseStatus accepts any casing of a known status.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusPendingReview, StatusUnderReview, StatusApproved} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of Pending Review, Under Review, Approved")
}

// Next returns the status the one-step advance moves to.
// Approved is terminal and reports false.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPendingReview:
		return StatusUnderReview, true
	case StatusUnderReview:
		return StatusApproved, true
	default:
		return s, false
	}
}

// Request is an intake submitted through the public onboarding form.
//
// Invariants:
//   - FullName, Email, Phone, CurrentSituation, NeedsDescription are non-empty
//   - ChildrenCount, when set, is >= 0
//   - Advance moves status forward only; Replace may set any status
//   - Resolved is a list-view flag, independent of Status
type Request struct {
	ID               id.RequestID `json:"id"`
	FullName         string       `json:"full_name"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	ChildrenCount    *int         `json:"children_count"`
	PregnancyStatus  *string      `json:"pregnancy_status"`
	CurrentSituation string       `json:"current_situation"`
	NeedsDescription string       `json:"needs_description"`
	ReferralSource   *string      `json:"referral_source"`
	Status           Status       `json:"status"`
	Resolved         bool         `json:"resolved"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at,omitzero"`
}

// Intake holds the applicant-supplied fields.
type Intake struct {
	FullName         string
	Email            string
	Phone            string
	ChildrenCount    *int
	PregnancyStatus  *string
	CurrentSituation string
	NeedsDescription string
	ReferralSource   *string
}

// Validate checks the required fields of the intake form.
func (in Intake) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"full_name", in.FullName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"current_situation", in.CurrentSituation},
		{"needs_description", in.NeedsDescription},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", r.field))
		}
	}
	if !strings.Contains(in.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if in.ChildrenCount != nil && *in.ChildrenCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "children_count must not be negative")
	}
	return nil
}

func (in Intake) normalized() Intake {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CurrentSituation = strings.TrimSpace(in.CurrentSituation)
	in.NeedsDescription = strings.TrimSpace(in.NeedsDescription)
	in.PregnancyStatus = trimmedOrNil(in.PregnancyStatus)
	in.ReferralSource = trimmedOrNil(in.ReferralSource)
	return in
}

// NewRequest builds a submitted request in Pending Review.
// CreatedAt and UpdatedAt are both set to now.
func NewRequest(requestID id.RequestID, in Intake, now time.Time) (*Request, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r := &Request{
		ID:        requestID,
		Status:    StatusPendingReview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.apply(in)
	return r, nil
}

// Advance applies the one-step status transition.
func (r *Request) Advance(now time.Time) error {
	next, ok := r.Status.Next()
	if !ok {
		return dErrors.New(dErrors.CodeConflict, "request is already approved")
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Replace overwrites the intake fields and status. Any status is allowed so
// admins can correct mistakes.
func (r *Request) Replace(in Intake, status Status, now time.Time) error {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	r.apply(in)
	r.Status = status
	r.UpdatedAt = now
	return nil
}

// SetResolved toggles the list-view flag.
func (r *Request) SetResolved(resolved bool, now time.Time) {
	r.Resolved = resolved
	r.UpdatedAt = now
}

// LastTouched is UpdatedAt, or CreatedAt when the record was never updated.
func (r *Request) LastTouched() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// Promotion returns what this request contributes to a new resident.
func (r *Request) Promotion() residentmodels.Promotion {
	return residentmodels.Promotion{
		RequestID:     r.ID,
		FullName:      r.FullName,
		Email:         r.Email,
		Phone:         r.Phone,
		ChildrenCount: r.ChildrenCount,
	}
}

// Summary renders the request as plain text for reply bodies.
func (r *Request) Summary() string {
	children := "Not provided"
	if r.ChildrenCount != nil {
		children = fmt.Sprintf("%d", *r.ChildrenCount)
	}
	lines := []string{
		"Full Name: " + r.FullName,
		"Email: " + r.Email,
		"Phone: " + r.Phone,
		"Number of Children: " + children,
		"Pregnancy Status: " + orNotProvided(r.PregnancyStatus),
		"Current Situation: " + r.CurrentSituation,
		"Needs Description: " + r.NeedsDescription,
		"How They Heard About Us: " + orNotProvided(r.ReferralSource),
	}
	return strings.Join(lines, "\n")
}

func (r *Request) apply(in Intake) {
	r.FullName = in.FullName
	r.Email = in.Email
	r.Phone = in.Phone
	r.ChildrenCount = in.ChildrenCount
	r.PregnancyStatus = in.PregnancyStatus
	r.CurrentSituation = in.CurrentSituation
	r.NeedsDescription = in.NeedsDescription
	r.ReferralSource = in.ReferralSource
}

func orNotProvided(s *string) string {
	if s == nil {
		return "Not provided"
	}
	return *s
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
