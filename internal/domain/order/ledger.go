package order

import "context"

// Ledger is the append-only record of completed orders
type Ledger interface {
	// Append stores the order; ErrDuplicateOrder if its id is already recorded
	Append(ctx context.Context, o *Order) error

	// OrdersFor returns a customer's orders in the order they were appended.
	// A customer without orders gets an empty slice.
	OrdersFor(ctx context.Context, customerID string) ([]*Order, error)
}
