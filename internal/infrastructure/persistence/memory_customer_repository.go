package persistence

import (
	"context"
	"sync"

	"github.com/cos/backend/internal/domain/identity"
)

// MemoryCustomerRepository keeps customers in process memory. Stored values
// are copies, so callers never share state with the store.
type MemoryCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]identity.Customer
}

// NewMemoryCustomerRepository creates an empty repository
func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{customers: make(map[string]identity.Customer)}
}

func detach(c *identity.Customer) identity.Customer {
	cp := *c
	cp.ClearDomainEvents()
	return cp
}

func (r *MemoryCustomerRepository) Create(_ context.Context, customer *identity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[customer.ID]; ok {
		return identity.ErrDuplicateID
	}
	r.customers[customer.ID] = detach(customer)
	return nil
}

func (r *MemoryCustomerRepository) Update(_ context.Context, customer *identity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[customer.ID]; !ok {
		return identity.ErrCustomerNotFound
	}
	r.customers[customer.ID] = detach(customer)
	return nil
}

func (r *MemoryCustomerRepository) FindByID(_ context.Context, id string) (*identity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, identity.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *MemoryCustomerRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.customers[id]
	return ok, nil
}

var _ identity.CustomerRepository = (*MemoryCustomerRepository)(nil)
