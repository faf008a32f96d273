package handler

import (
	"time"

	"safenest/internal/onboarding/models"
	id "safenest/pkg/domain"
)

// IntakeRequest is the public onboarding form body.
type IntakeRequest struct {
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	ChildrenCount    *int    `json:"children_count"`
	PregnancyStatus  *string `json:"pregnancy_status"`
	CurrentSituation string  `json:"current_situation"`
	NeedsDescription string  `json:"needs_description"`
	ReferralSource   *string `json:"referral_source"`
}

func (r IntakeRequest) Intake() models.Intake {
	return models.Intake{
		FullName:         r.FullName,
		Email:            r.Email,
		Phone:            r.Phone,
		ChildrenCount:    r.ChildrenCount,
		PregnancyStatus:  r.PregnancyStatus,
		CurrentSituation: r.CurrentSituation,
		NeedsDescription: r.NeedsDescription,
		ReferralSource:   r.ReferralSource,
	}
}

// UpdateRequest is the admin full-record edit.
type UpdateRequest struct {
	IntakeRequest
	Status string `json:"status"`
}

type SubmitResponse struct {
	ID        id.RequestID  `json:"id"`
	Status    models.Status `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	Message   string        `json:"message"`
}

type ListResponse struct {
	Requests []*models.Request `json:"requests"`
	Count    int               `json:"count"`
}

type ReplyLinkResponse struct {
	Link string `json:"link"`
}
