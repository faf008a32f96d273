package store

import (
	"context"
	"sync"

	"safenest/internal/onboarding/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

// InMemory keeps onboarding requests in a map guarded by a RWMutex.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[r.ID] = clone(r)
	return nil
}

func (s *InMemory) Update(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requests[r.ID] = clone(r)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, clone(r))
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, requestID id.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[requestID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.requests, requestID)
	return nil
}

func clone(r *models.Request) *models.Request {
	c := *r
	c.ChildrenCount = clonePtr(r.ChildrenCount)
	c.PregnancyStatus = clonePtr(r.PregnancyStatus)
	c.ReferralSource = clonePtr(r.ReferralSource)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
