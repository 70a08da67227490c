// Package ratelimit throttles the unauthenticated auth endpoints. Login and
// OTP requests are limited per client IP with a sliding window, which keeps
// credential stuffing and OTP spraying expensive without touching the
// authenticated surface.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// slidingWindow keeps request timestamps; expired ones are dropped on every
// check so a burst at a window boundary cannot double the effective limit.
type slidingWindow struct {
	timestamps []time.Time
}

func (sw *slidingWindow) cleanup(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// InMemory is the single-node limiter store.
type InMemory struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
}

func NewInMemory() *InMemory {
	return &InMemory{buckets: make(map[string]*slidingWindow)}
}

func (s *InMemory) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sw := s.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.buckets[key] = sw
	}
	sw.cleanup(now.Add(-window))

	if len(sw.timestamps) >= limit {
		return &Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: sw.timestamps[0].Add(window),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemory) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}
