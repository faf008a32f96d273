package store

import (
	"context"
	"sync"

	"safenest/internal/settings/models"
	"safenest/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	settings *models.Settings
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Get returns ErrNotFound until the first Save.
func (s *InMemory) Get(_ context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *s.settings
	return &c, nil
}

func (s *InMemory) Save(_ context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *settings
	s.settings = &c
	return nil
}
