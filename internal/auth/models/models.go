package models

import (
	"strings"
	"time"

	id "safenest/pkg/domain"
)

// Account is a set of admin credentials. Only the allow-listed email may
// hold a session, but the store can carry others.
type Account struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a signed-in admin. The bearer token only carries its ID.
type Session struct {
	ID        id.SessionID `json:"session_id"`
	Email     string       `json:"email"`
	Device    string       `json:"device"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func NewSession(email, device string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id.NewSessionID(),
		Email:     NormalizeEmail(email),
		Device:    device,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
