package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps request timestamps in process memory. Suitable for a
// single instance or tests; multi-instance deployments want RedisStore so
// every replica sees the same counts.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often fully-expired keys are dropped.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string][]time.Time),
		cleanupInterval: time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := trimWindow(s.windows[key], now.Add(-window))
	if len(live) >= limit {
		s.windows[key] = live
		return false, int64(len(live)), nil
	}

	live = append(live, now)
	s.windows[key] = live
	return true, int64(len(live)), nil
}

func (s *MemoryStore) Count(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := trimWindow(s.windows[key], time.Now().Add(-window))
	s.windows[key] = live
	return int64(len(live)), nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}

// Close stops the background cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// trimWindow drops timestamps at or before the cutoff. Timestamps are
// appended in order, so the slice stays sorted.
func trimWindow(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			// Only keys idle for at least an hour are dropped, so live
			// entries survive regardless of the configured window.
			cutoff := time.Now().Add(-time.Hour)
			for key, ts := range s.windows {
				if len(ts) == 0 || ts[len(ts)-1].Before(cutoff) {
					delete(s.windows, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
