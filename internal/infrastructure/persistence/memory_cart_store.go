package persistence

import (
	"sync"

	"github.com/cos/backend/internal/domain/cart"
)

// MemoryCartStore keeps carts in process memory. Carts live as long as the
// process; they are not part of the durable state.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
}

// NewMemoryCartStore creates an empty store
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]*cart.Cart)}
}

func (s *MemoryCartStore) Cart(customerID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[customerID]
	if !ok {
		c = cart.New()
		s.carts[customerID] = c
	}
	return c
}

var _ cart.Store = (*MemoryCartStore)(nil)
