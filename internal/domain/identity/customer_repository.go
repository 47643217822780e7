package identity

import "context"

// CustomerRepository persists customers
type CustomerRepository interface {
	// Create stores a new customer; returns ErrDuplicateID if the ID is taken
	Create(ctx context.Context, customer *Customer) error

	// Update saves changes to an existing customer
	Update(ctx context.Context, customer *Customer) error

	// FindByID returns ErrCustomerNotFound when the ID is unknown
	FindByID(ctx context.Context, id string) (*Customer, error)

	// ExistsByID reports whether the ID is registered
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// SessionRegistry is the set of customers with an active session. Begin and
// End are idempotent.
type SessionRegistry interface {
	Begin(ctx context.Context, customerID string) error
	End(ctx context.Context, customerID string) error
	IsActive(ctx context.Context, customerID string) (bool, error)
}
