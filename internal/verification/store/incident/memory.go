// Package incident stores complaint and incident reports.
package incident

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"suraksha/internal/verification/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/sentinel"
)

// InMemory is the development and test incident store. Incidents are
// append-only, so the store only ever inserts and lists.
type InMemory struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Incident
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]*models.Incident)}
}

func (s *InMemory) Create(ctx context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[incident.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[incident.ID] = incident.Clone()
	return nil
}

// ListByWorker returns the worker's incident history, oldest first.
func (s *InMemory) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var incidents []*models.Incident
	for _, incident := range s.byID {
		if incident.WorkerID == workerID {
			incidents = append(incidents, incident.Clone())
		}
	}
	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt.Before(incidents[j].CreatedAt)
	})
	return incidents, nil
}
