package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cos/backend/internal/domain/shared"
)

// entry is a remembered key with its value and expiry
type entry struct {
	value     string
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore with a map guarded by
// a mutex. Keys are visible only to this process.
type InMemoryIdempotencyStore struct {
	mu              sync.RWMutex
	entries         map[string]entry
	now             func() time.Time
	cleanupInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) { s.now = now }
}

// WithCleanupInterval sets how often expired keys are swept; zero disables the sweeper
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) { s.cleanupInterval = d }
}

// NewInMemoryIdempotencyStore creates a store and starts its sweeper
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:         make(map[string]entry),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	if store.cleanupInterval > 0 {
		store.wg.Add(1)
		go store.cleanupLoop()
	}

	return store
}

// MarkProcessed records key -> value unless a live entry already exists
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Recall returns the live value for key
func (s *InMemoryIdempotencyStore) Recall(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || !s.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
