package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local sliding-window store. A single mutex
// linearizes concurrent check-and-record calls so two simultaneous
// submissions from one identifier cannot both take the last slot.
//
// State is lost on restart; that resets every counter and is the documented
// behavior for single-instance deployments. Multi-instance correctness
// needs the redis store.
type MemoryStore struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps map[string][]time.Time
	now    func() time.Time
}

// NewMemoryStore creates an in-memory store admitting up to limit calls per
// key within the trailing window.
func NewMemoryStore(limit int, window time.Duration) *MemoryStore {
	return &MemoryStore{
		limit:  limit,
		window: window,
		stamps: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow implements Store. A rejected attempt is not recorded, so rejection
// never extends the window.
func (s *MemoryStore) Allow(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	// Only stamps strictly older than the window are pruned; a stamp
	// exactly window old still counts against the quota.
	recent := s.stamps[key][:0]
	for _, t := range s.stamps[key] {
		if !t.Before(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= s.limit {
		s.stamps[key] = recent
		return false, nil
	}

	s.stamps[key] = append(recent, now)
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps = make(map[string][]time.Time)
	return nil
}
