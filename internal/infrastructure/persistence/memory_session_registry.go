package persistence

import (
	"context"
	"sync"

	"github.com/cos/backend/internal/domain/identity"
)

// MemorySessionRegistry tracks which customers are signed in
type MemorySessionRegistry struct {
	mu     sync.RWMutex
	active map[string]struct{}
}

// NewMemorySessionRegistry creates an empty registry
func NewMemorySessionRegistry() *MemorySessionRegistry {
	return &MemorySessionRegistry{active: make(map[string]struct{})}
}

func (s *MemorySessionRegistry) Begin(_ context.Context, customerID string) error {
	s.mu.Lock()
	s.active[customerID] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionRegistry) End(_ context.Context, customerID string) error {
	s.mu.Lock()
	delete(s.active, customerID)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionRegistry) IsActive(_ context.Context, customerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[customerID]
	return ok, nil
}

var _ identity.SessionRegistry = (*MemorySessionRegistry)(nil)
