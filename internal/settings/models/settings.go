package models

import (
	"strings"
	"time"

	dErrors "safenest/pkg/domain-errors"
)

const (
	DefaultCapacity     = 12
	DefaultContactEmail = "info@agapesafetynest.org"
)

// Settings is the single site-wide configuration row.
type Settings struct {
	Capacity     int       `json:"capacity"`
	ContactEmail string    `json:"contact_email"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// Defaults is what Get returns before anything has been saved.
func Defaults() *Settings {
	return &Settings{Capacity: DefaultCapacity, ContactEmail: DefaultContactEmail}
}

// New validates and stamps a settings row.
func New(capacity int, contactEmail string, now time.Time) (*Settings, error) {
	contactEmail = strings.TrimSpace(contactEmail)
	if capacity < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "capacity must not be negative")
	}
	if !strings.Contains(contactEmail, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "contact_email must be a valid address")
	}
	return &Settings{Capacity: capacity, ContactEmail: contactEmail, UpdatedAt: now}, nil
}
