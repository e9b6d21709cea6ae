package antispam

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// AttemptStore keeps the order-submission timestamps per (ip, device) key
type AttemptStore interface {
	// Get returns the stored attempts for key, oldest first
	Get(ctx context.Context, key string) ([]time.Time, error)
	// Prune drops attempts at or before cutoff and returns how many remain
	Prune(ctx context.Context, key string, cutoff time.Time) (int, error)
	// Append records an attempt at the given time
	Append(ctx context.Context, key string, at time.Time) error
}

// MemoryAttemptStore is a process-local AttemptStore
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryAttemptStore creates an empty in-memory store
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string][]time.Time)}
}

func (s *MemoryAttemptStore) Get(_ context.Context, key string) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.attempts[key]
	out := make([]time.Time, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryAttemptStore) Prune(_ context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := pruneBefore(s.attempts[key], cutoff)
	if len(kept) == 0 {
		delete(s.attempts, key)
		return 0, nil
	}
	s.attempts[key] = kept
	return len(kept), nil
}

func (s *MemoryAttemptStore) Append(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[key] = append(s.attempts[key], at)
	return nil
}

// Sweep prunes every key and drops the empty ones. Returns the number of keys removed.
func (s *MemoryAttemptStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, stored := range s.attempts {
		kept := pruneBefore(stored, cutoff)
		if len(kept) == 0 {
			delete(s.attempts, key)
			removed++
			continue
		}
		s.attempts[key] = kept
	}
	return removed
}

// Len returns the number of tracked keys
func (s *MemoryAttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// StartSweeper periodically drops attempts older than window until ctx is done
func (s *MemoryAttemptStore) StartSweeper(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := s.Sweep(now.Add(-window)); removed > 0 {
				log.Debug().Int("removed_keys", removed).Msg("Swept expired order attempts")
			}
		}
	}
}

// pruneBefore returns the attempts strictly after cutoff, reusing the backing array
func pruneBefore(attempts []time.Time, cutoff time.Time) []time.Time {
	kept := attempts[:0]
	for _, at := range attempts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
