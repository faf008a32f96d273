package store

import (
	"context"
	"sync"

	"safenest/internal/contact/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

type InMemory struct {
	mu          sync.RWMutex
	submissions map[id.ContactID]*models.Submission
}

func NewInMemory() *InMemory {
	return &InMemory{submissions: make(map[id.ContactID]*models.Submission)}
}

func (s *InMemory) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.ID]; exists {
		return sentinel.ErrConflict
	}
	s.submissions[sub.ID] = clone(sub)
	return nil
}

func (s *InMemory) Update(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.submissions[sub.ID] = clone(sub)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(sub), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, clone(sub))
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.submissions, contactID)
	return nil
}

func clone(sub *models.Submission) *models.Submission {
	c := *sub
	if sub.Phone != nil {
		phone := *sub.Phone
		c.Phone = &phone
	}
	return &c
}
