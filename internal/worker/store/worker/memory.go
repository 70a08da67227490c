// Package worker provides persistence for worker profiles. The in-memory
// implementation backs tests and single-node deployments without a
// database; the Postgres implementation is the production store.
package worker

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded worker store.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[id.WorkerID]*models.Worker
	byUser     map[id.UserID]id.WorkerID
	byOfficial map[string]id.WorkerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[id.WorkerID]*models.Worker),
		byUser:     make(map[id.UserID]id.WorkerID),
		byOfficial: make(map[string]id.WorkerID),
	}
}

// CreateIfUserAvailable registers a new worker profile. Each user holds at
// most one profile; a second registration returns ErrAlreadyUsed.
func (s *InMemory) CreateIfUserAvailable(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[w.UserID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byID[w.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if w.OfficialWorkerID != "" {
		if _, exists := s.byOfficial[w.OfficialWorkerID]; exists {
			return sentinel.ErrConflict
		}
		s.byOfficial[w.OfficialWorkerID] = w.ID
	}

	s.byID[w.ID] = w.Clone()
	s.byUser[w.UserID] = w.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, workerID id.WorkerID) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byID[workerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return w.Clone(), nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workerID, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[workerID].Clone(), nil
}

func (s *InMemory) FindByOfficialID(_ context.Context, officialID string) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workerID, ok := s.byOfficial[officialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[workerID].Clone(), nil
}

// Execute atomically validates and mutates a worker record. The store lock
// is held across both callbacks, so issuance queries made inside the same
// service transaction observe a consistent view.
func (s *InMemory) Execute(_ context.Context, workerID id.WorkerID, validate func(*models.Worker) error, mutate func(*models.Worker)) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[workerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	work := stored.Clone()
	if err := validate(work); err != nil {
		return nil, err
	}
	mutate(work)

	if work.OfficialWorkerID != stored.OfficialWorkerID {
		if stored.OfficialWorkerID != "" {
			delete(s.byOfficial, stored.OfficialWorkerID)
		}
		if work.OfficialWorkerID != "" {
			if holder, taken := s.byOfficial[work.OfficialWorkerID]; taken && holder != workerID {
				return nil, sentinel.ErrConflict
			}
			s.byOfficial[work.OfficialWorkerID] = workerID
		}
	}

	s.byID[workerID] = work
	return work.Clone(), nil
}

// CountByPrefix counts assigned official IDs with the given prefix.
func (s *InMemory) CountByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for officialID := range s.byOfficial {
		if strings.HasPrefix(officialID, prefix) {
			n++
		}
	}
	return n, nil
}

// Exists reports whether the exact official ID is already assigned.
func (s *InMemory) Exists(_ context.Context, officialID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byOfficial[officialID]
	return ok, nil
}

// ListByVerificationStatus returns workers in the given verification state,
// oldest update first. The police queue reads pending workers through this.
func (s *InMemory) ListByVerificationStatus(_ context.Context, status models.VerificationStatus) ([]*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Worker
	for _, w := range s.byID {
		if w.VerificationStatus == status {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

// ListByCompany returns the workers currently linked to a company, oldest
// link first by update time.
func (s *InMemory) ListByCompany(_ context.Context, companyID id.CompanyID) ([]*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Worker
	for _, w := range s.byID {
		if w.CompanyID == companyID {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

// ListExpired returns verified workers whose validity window lapsed at or
// before the given instant, for the expiry sweep.
func (s *InMemory) ListExpired(_ context.Context, asOf time.Time) ([]*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Worker
	for _, w := range s.byID {
		if w.IsVerified() && w.ExpiryDate != nil && !w.ExpiryDate.After(asOf) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out, nil
}
