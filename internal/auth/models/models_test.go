package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC)
	s := NewSession("  Admin@AgapeSafetyNest.org ", "Chrome on Mac OS X", now, time.Hour)

	assert.False(t, s.ID.IsNil())
	assert.Equal(t, "admin@agapesafetynest.org", s.Email)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	assert.False(t, s.Expired(now.Add(59*time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}
