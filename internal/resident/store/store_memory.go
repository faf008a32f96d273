package store

import (
	"context"
	"sync"

	"safenest/internal/resident/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

// InMemory keeps residents in a map. Records are copied on the way in and out
// so callers cannot mutate stored state.
type InMemory struct {
	mu        sync.RWMutex
	residents map[id.ResidentID]*models.Resident
}

func NewInMemory() *InMemory {
	return &InMemory{residents: make(map[id.ResidentID]*models.Resident)}
}

// Create inserts r. A second resident for the same source request is rejected
// with sentinel.ErrAlreadyUsed, mirroring the unique index in Postgres.
func (s *InMemory) Create(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.residents[r.ID]; exists {
		return sentinel.ErrConflict
	}
	if r.SourceRequestID != nil {
		for _, existing := range s.residents {
			if existing.SourceRequestID != nil && *existing.SourceRequestID == *r.SourceRequestID {
				return sentinel.ErrAlreadyUsed
			}
		}
	}
	s.residents[r.ID] = clone(r)
	return nil
}

func (s *InMemory) Update(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.residents[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.residents[r.ID] = clone(r)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, residentID id.ResidentID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.residents[residentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

// FindByName matches on the folded name.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	probe := models.Resident{Name: name}
	folded := probe.FoldedName()
	for _, r := range s.residents {
		if r.FoldedName() == folded {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindBySourceRequest(_ context.Context, requestID id.RequestID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.residents {
		if r.SourceRequestID != nil && *r.SourceRequestID == requestID {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Resident, 0, len(s.residents))
	for _, r := range s.residents {
		out = append(out, clone(r))
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, residentID id.ResidentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.residents[residentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.residents, residentID)
	return nil
}

func clone(r *models.Resident) *models.Resident {
	c := *r
	c.Email = clonePtr(r.Email)
	c.Phone = clonePtr(r.Phone)
	c.ChildrenAges = clonePtr(r.ChildrenAges)
	c.ExpectedExitDate = clonePtr(r.ExpectedExitDate)
	c.SourceRequestID = clonePtr(r.SourceRequestID)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
