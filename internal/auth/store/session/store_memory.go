package session

import (
	"context"
	"sync"

	"safenest/internal/auth/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

// InMemory keeps sessions until deleted. Expiry is enforced by the service.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]models.Session)}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &session, nil
}

func (s *InMemory) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
