package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/infrastructure/persistence/models"
)

// GormOrderLedger implements order.Ledger using GORM. Orders are returned in
// insertion order via the auto-increment seq column.
type GormOrderLedger struct {
	db *gorm.DB
}

// NewGormOrderLedger creates a new GormOrderLedger
func NewGormOrderLedger(db *gorm.DB) *GormOrderLedger {
	return &GormOrderLedger{db: db}
}

// WithTx returns a new ledger with the given transaction
func (l *GormOrderLedger) WithTx(tx *gorm.DB) *GormOrderLedger {
	return &GormOrderLedger{db: tx}
}

// Append records a completed order together with its lines
func (l *GormOrderLedger) Append(ctx context.Context, o *order.Order) error {
	var count int64
	id := o.ID().String()
	if err := l.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return order.ErrDuplicateOrder.WithDetail("order_id", id)
	}

	model := models.OrderModelFromDomain(o)
	if err := l.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return order.ErrDuplicateOrder.WithDetail("order_id", id)
		}
		return err
	}
	return nil
}

// OrdersFor returns the customer's orders oldest first
func (l *GormOrderLedger) OrdersFor(ctx context.Context, customerID string) ([]*order.Order, error) {
	var rows []models.OrderModel
	err := l.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("customer_id = ?", customerID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(rows))
	for i := range rows {
		o, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

var _ order.Ledger = (*GormOrderLedger)(nil)
