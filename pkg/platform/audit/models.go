package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to applicant and resident records.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers admin sign-in outcomes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject identifies the record acted on (request, contact or resident id, or an email).
	Subject string
	Action  string
	Reason  string
	// ActorID is the signed-in admin email; empty for public submissions.
	ActorID   string
	RequestID string
	IP        string
}

type AuditEvent string

const (
	// Intake events
	EventOnboardingSubmitted     AuditEvent = "onboarding_submitted"
	EventOnboardingStatusChanged AuditEvent = "onboarding_status_changed"
	EventContactSubmitted        AuditEvent = "contact_submitted"

	// Resident events
	EventResidentPromoted AuditEvent = "resident_promoted"
	EventResidentCreated  AuditEvent = "resident_created"

	// Admin record events
	EventRecordDeleted   AuditEvent = "record_deleted"
	EventSettingsUpdated AuditEvent = "settings_updated"

	// Session events
	EventAdminSignedIn     AuditEvent = "admin_signed_in"
	EventAdminSignedOut    AuditEvent = "admin_signed_out"
	EventAdminAccessDenied AuditEvent = "admin_access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventOnboardingStatusChanged: CategoryCompliance,
	EventResidentPromoted:        CategoryCompliance,
	EventResidentCreated:         CategoryCompliance,
	EventRecordDeleted:           CategoryCompliance,
	EventSettingsUpdated:         CategoryCompliance,

	EventAdminAccessDenied: CategorySecurity,
	EventAdminSignedIn:     CategorySecurity,

	EventOnboardingSubmitted: CategoryOperations,
	EventContactSubmitted:    CategoryOperations,
	EventAdminSignedOut:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the port services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
