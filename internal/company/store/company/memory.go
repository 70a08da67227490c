// Package company provides persistence for employer company profiles.
package company

import (
	"context"
	"sync"

	"suraksha/internal/company/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded company store.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.CompanyID]*models.Company
	byUser map[id.UserID]id.CompanyID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.CompanyID]*models.Company),
		byUser: make(map[id.UserID]id.CompanyID),
	}
}

// CreateIfUserAvailable registers a company profile. Each user account holds
// at most one profile; a second registration returns ErrAlreadyUsed.
func (s *InMemory) CreateIfUserAvailable(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[c.UserID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byID[c.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}

	s.byID[c.ID] = c.Clone()
	s.byUser[c.UserID] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	companyID, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[companyID].Clone(), nil
}
