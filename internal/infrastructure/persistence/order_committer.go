package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
)

// GormOrderCommitter saves the debited customer and appends the order in a
// single transaction, so a failed append leaves the balance untouched.
type GormOrderCommitter struct {
	db        *gorm.DB
	customers *GormCustomerRepository
	ledger    *GormOrderLedger
}

// NewGormOrderCommitter creates a new GormOrderCommitter
func NewGormOrderCommitter(db *gorm.DB) *GormOrderCommitter {
	return &GormOrderCommitter{
		db:        db,
		customers: NewGormCustomerRepository(db),
		ledger:    NewGormOrderLedger(db),
	}
}

// CommitOrder persists the customer's new balance and the order atomically
func (c *GormOrderCommitter) CommitOrder(ctx context.Context, customer *identity.Customer, o *order.Order) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.customers.WithTx(tx).Update(ctx, customer); err != nil {
			return err
		}
		return c.ledger.WithTx(tx).Append(ctx, o)
	})
}
