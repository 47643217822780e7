package persistence

import (
	"context"
	"sync"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
)

// MemoryOrderLedger is an append-only in-memory ledger
type MemoryOrderLedger struct {
	mu         sync.RWMutex
	byCustomer map[string][]*order.Order
	ids        map[string]struct{}
}

// NewMemoryOrderLedger creates an empty ledger
func NewMemoryOrderLedger() *MemoryOrderLedger {
	return &MemoryOrderLedger{
		byCustomer: make(map[string][]*order.Order),
		ids:        make(map[string]struct{}),
	}
}

func (l *MemoryOrderLedger) Append(_ context.Context, o *order.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(o)
}

func (l *MemoryOrderLedger) appendLocked(o *order.Order) error {
	id := o.ID().String()
	if _, ok := l.ids[id]; ok {
		return order.ErrDuplicateOrder.WithDetail("order_id", id)
	}
	l.ids[id] = struct{}{}
	l.byCustomer[o.CustomerID()] = append(l.byCustomer[o.CustomerID()], o)
	return nil
}

func (l *MemoryOrderLedger) contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

func (l *MemoryOrderLedger) OrdersFor(_ context.Context, customerID string) ([]*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.byCustomer[customerID]
	out := make([]*order.Order, len(src))
	copy(out, src)
	return out, nil
}

var _ order.Ledger = (*MemoryOrderLedger)(nil)

// MemoryOrderCommitter pairs the in-memory customer repository and ledger.
// Both preconditions are checked before either store changes.
type MemoryOrderCommitter struct {
	mu        sync.Mutex
	customers *MemoryCustomerRepository
	ledger    *MemoryOrderLedger
}

// NewMemoryOrderCommitter creates a committer over the given stores
func NewMemoryOrderCommitter(customers *MemoryCustomerRepository, ledger *MemoryOrderLedger) *MemoryOrderCommitter {
	return &MemoryOrderCommitter{customers: customers, ledger: ledger}
}

// CommitOrder stores the customer and appends the order, or does neither
func (c *MemoryOrderCommitter) CommitOrder(_ context.Context, customer *identity.Customer, o *order.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.customers.mu.Lock()
	defer c.customers.mu.Unlock()
	c.ledger.mu.Lock()
	defer c.ledger.mu.Unlock()

	if _, ok := c.customers.customers[customer.ID]; !ok {
		return identity.ErrCustomerNotFound
	}
	if c.ledger.contains(o.ID().String()) {
		return order.ErrDuplicateOrder.WithDetail("order_id", o.ID().String())
	}
	c.customers.customers[customer.ID] = detach(customer)
	return c.ledger.appendLocked(o)
}
