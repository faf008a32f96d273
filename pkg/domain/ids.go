package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "safenest/pkg/domain-errors"
)

// Typed identifiers keep request, contact, resident and session IDs from being
// passed where another kind is expected.
type (
	RequestID  uuid.UUID
	ContactID  uuid.UUID
	ResidentID uuid.UUID
	SessionID  uuid.UUID
)

func NewRequestID() RequestID   { return RequestID(uuid.New()) }
func NewContactID() ContactID   { return ContactID(uuid.New()) }
func NewResidentID() ResidentID { return ResidentID(uuid.New()) }
func NewSessionID() SessionID   { return SessionID(uuid.New()) }

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request")
	return RequestID(u), err
}

func ParseContactID(s string) (ContactID, error) {
	u, err := parseUUID(s, "contact")
	return ContactID(u), err
}

func ParseResidentID(s string) (ResidentID, error) {
	u, err := parseUUID(s, "resident")
	return ResidentID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id ContactID) String() string  { return uuid.UUID(id).String() }
func (id ResidentID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }

func (id RequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ContactID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ResidentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id RequestID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ContactID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ResidentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *RequestID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContactID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ResidentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
