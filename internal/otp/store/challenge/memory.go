// Package challenge stores outstanding OTP challenges keyed by mobile
// number.
package challenge

import (
	"context"
	"sync"
	"time"

	"suraksha/internal/otp/models"
	"suraksha/pkg/platform/sentinel"
)

// InMemory is the development and test challenge store. Expiry is checked
// on read; there is no background reaper.
type InMemory struct {
	mu       sync.Mutex
	byMobile map[string]*models.Challenge
}

func NewInMemory() *InMemory {
	return &InMemory{byMobile: make(map[string]*models.Challenge)}
}

// Save stores the challenge, replacing any previous one for the number.
func (s *InMemory) Save(ctx context.Context, c *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *c
	s.byMobile[c.Mobile] = &clone
	return nil
}

func (s *InMemory) Find(ctx context.Context, mobile string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byMobile[mobile]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.Expired(time.Now()) {
		delete(s.byMobile, mobile)
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *InMemory) Delete(ctx context.Context, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byMobile, mobile)
	return nil
}
