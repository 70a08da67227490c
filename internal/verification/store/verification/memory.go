// Package verification stores police verification case records.
package verification

import (
	"context"
	"sort"
	"sync"

	"suraksha/internal/verification/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
)

// InMemory is the development and test record store.
type InMemory struct {
	mu           sync.RWMutex
	byID         map[id.VerificationID]*models.Record
	openByWorker map[id.WorkerID]id.VerificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:         make(map[id.VerificationID]*models.Record),
		openByWorker: make(map[id.WorkerID]id.VerificationID),
	}
}

// Open files a new verification case. A worker can have at most one open
// case, so a second Open while one is pending fails with ErrConflict.
func (s *InMemory) Open(ctx context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return sentinel.ErrConflict
	}
	if record.Status == models.RecordOpen {
		if _, exists := s.openByWorker[record.WorkerID]; exists {
			return sentinel.ErrConflict
		}
		s.openByWorker[record.WorkerID] = record.ID
	}
	s.byID[record.ID] = record.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, recordID id.VerificationID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// FindOpenByWorker returns the worker's pending case, if any.
func (s *InMemory) FindOpenByWorker(ctx context.Context, workerID id.WorkerID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recordID, ok := s.openByWorker[workerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[recordID].Clone(), nil
}

// Execute loads the record, validates, applies the mutation and persists the
// result under the store lock.
func (s *InMemory) Execute(ctx context.Context, recordID id.VerificationID, validate func(*models.Record) error, mutate func(*models.Record)) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	next := current.Clone()
	if err := validate(next); err != nil {
		return nil, err
	}
	mutate(next)

	if current.Status == models.RecordOpen && next.Status != models.RecordOpen {
		delete(s.openByWorker, next.WorkerID)
	}
	s.byID[recordID] = next
	return next.Clone(), nil
}

// ListByWorker returns every case filed for the worker, oldest first.
func (s *InMemory) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.Record
	for _, record := range s.byID {
		if record.WorkerID == workerID {
			records = append(records, record.Clone())
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
