package memory

import (
	"context"
	"sync"

	id "suraksha/pkg/domain"
	audit "suraksha/pkg/platform/audit"
)

// InMemoryStore keeps audit events per worker. Used in tests and local
// development runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.WorkerID][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.WorkerID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.WorkerID][]audit.Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.WorkerID] = append(s.events[event.WorkerID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByWorker(_ context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[workerID]...), nil
}

// ListRecent returns the most recent N events in insertion order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.order) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.order[start:]...), nil
}
