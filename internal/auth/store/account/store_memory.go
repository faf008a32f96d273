package account

import (
	"context"
	"sync"

	"safenest/internal/auth/models"
	"safenest/pkg/platform/sentinel"
)

// InMemory holds accounts keyed by normalized email.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]models.Account)}
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

// Save inserts or replaces the account.
func (s *InMemory) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *account
	a.Email = models.NormalizeEmail(a.Email)
	s.accounts[a.Email] = a
	return nil
}
