// Package user persists authentication accounts.
package user

import (
	"context"
	"sync"

	"suraksha/internal/auth/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
)

// InMemory keeps accounts in process memory. It backs unit tests and the
// zero-infrastructure development mode.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.UserID]*models.User
	byMobile map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.UserID]*models.User),
		byMobile: make(map[string]id.UserID),
	}
}

// Create stores a new account. A mobile number already registered to another
// account returns sentinel.ErrAlreadyUsed.
func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[u.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byMobile[u.Mobile]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[u.ID] = u.Clone()
	s.byMobile[u.Mobile] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemory) FindByMobile(_ context.Context, mobile string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byMobile[mobile]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[userID].Clone(), nil
}
