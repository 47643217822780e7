package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for ledger entries. Seq preserves
// append order per customer; ID is the public order id.
type OrderModel struct {
	Seq            uint64            `gorm:"primaryKey;autoIncrement"`
	ID             string            `gorm:"type:varchar(36);uniqueIndex;not null"`
	CustomerID     string            `gorm:"type:varchar(64);index;not null"`
	DeliveryMethod string            `gorm:"type:varchar(20);not null"`
	Subtotal       valueobject.Money `gorm:"type:numeric(12,2);not null"`
	Tax            valueobject.Money `gorm:"type:numeric(12,2);not null"`
	DeliveryFee    valueobject.Money `gorm:"type:numeric(12,2);not null"`
	Total          valueobject.Money `gorm:"type:numeric(12,2);not null"`
	AuthToken      string            `gorm:"type:varchar(64);not null"`
	CardLast4      string            `gorm:"type:varchar(4)"`
	CreatedAt      time.Time         `gorm:"not null"`
	Lines          []OrderLineModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel is one snapshotted line of an order
type OrderLineModel struct {
	ID          uint64            `gorm:"primaryKey;autoIncrement"`
	OrderID     string            `gorm:"type:varchar(36);index;not null"`
	Position    int               `gorm:"not null"`
	ProductID   string            `gorm:"type:varchar(64);not null"`
	ProductName string            `gorm:"type:varchar(200);not null"`
	UnitPrice   valueobject.Money `gorm:"type:numeric(12,2);not null"`
	Quantity    int               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() (*order.Order, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]order.Line, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, order.Line{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		})
	}
	return order.Restore(order.Snapshot{
		ID:         id,
		CustomerID: m.CustomerID,
		Lines:      lines,
		Delivery:   pricing.DeliveryMethod(m.DeliveryMethod),
		Quote: pricing.Quote{
			Subtotal:    m.Subtotal,
			Tax:         m.Tax,
			DeliveryFee: m.DeliveryFee,
			Total:       m.Total,
		},
		AuthToken: payment.AuthToken(m.AuthToken),
		CardLast4: m.CardLast4,
		CreatedAt: m.CreatedAt,
	}), nil
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	s := o.Snapshot()
	m := &OrderModel{
		ID:             s.ID.String(),
		CustomerID:     s.CustomerID,
		DeliveryMethod: s.Delivery.String(),
		Subtotal:       s.Quote.Subtotal,
		Tax:            s.Quote.Tax,
		DeliveryFee:    s.Quote.DeliveryFee,
		Total:          s.Quote.Total,
		AuthToken:      string(s.AuthToken),
		CardLast4:      s.CardLast4,
		CreatedAt:      s.CreatedAt,
		Lines:          make([]OrderLineModel, 0, len(s.Lines)),
	}
	for i, l := range s.Lines {
		m.Lines = append(m.Lines, OrderLineModel{
			OrderID:     m.ID,
			Position:    i,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		})
	}
	return m
}
