package order

import (
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// EventTypeOrderPlaced is published after an order is committed
const EventTypeOrderPlaced = "OrderPlaced"

// OrderPlacedEvent is published after an order is committed
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	CustomerID string                 `json:"customer_id"`
	Total      valueobject.Money      `json:"total"`
	Delivery   pricing.DeliveryMethod `json:"delivery"`
	ItemCount  int                    `json:"item_count"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	items := 0
	for _, l := range o.lines {
		items += l.Quantity
	}
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.id.String()),
		CustomerID:      o.customerID,
		Total:           o.Total(),
		Delivery:        o.delivery,
		ItemCount:       items,
	}
}
