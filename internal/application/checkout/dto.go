package checkout

import (
	"time"

	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// PlaceOrderRequest is a checkout of the customer's current cart
type PlaceOrderRequest struct {
	CustomerID string
	Delivery   pricing.DeliveryMethod
	// IdempotencyKey, when set, makes a retried request fail with
	// DUPLICATE_REQUEST instead of charging twice
	IdempotencyKey string
	// Replacements is asked for another instrument after a decline; nil
	// means abort at the first decline
	Replacements InstrumentProvider
}

// OrderLineResponse is one purchased line
type OrderLineResponse struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Amount      valueobject.Money `json:"amount"`
}

// OrderResponse is the summary of a completed order
type OrderResponse struct {
	ID             string                 `json:"id"`
	CustomerID     string                 `json:"customer_id"`
	Lines          []OrderLineResponse    `json:"lines"`
	DeliveryMethod pricing.DeliveryMethod `json:"delivery_method"`
	Subtotal       valueobject.Money      `json:"subtotal"`
	Tax            valueobject.Money      `json:"tax"`
	DeliveryFee    valueobject.Money      `json:"delivery_fee"`
	Total          valueobject.Money      `json:"total"`
	AuthToken      string                 `json:"auth_token"`
	CardLast4      string                 `json:"card_last4"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Receipt is returned by a successful checkout
type Receipt struct {
	Order OrderResponse `json:"order"`
	// Attempts is the number of authorizations it took, 1 to max
	Attempts int `json:"attempts"`
	// InstrumentReplaced is true when a replacement card paid and was stored
	InstrumentReplaced bool `json:"instrument_replaced"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	q := o.Quote()
	lines := o.Lines()
	out := make([]OrderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Amount:      l.Amount(),
		})
	}
	return OrderResponse{
		ID:             o.ID().String(),
		CustomerID:     o.CustomerID(),
		Lines:          out,
		DeliveryMethod: o.Delivery(),
		Subtotal:       q.Subtotal,
		Tax:            q.Tax,
		DeliveryFee:    q.DeliveryFee,
		Total:          q.Total,
		AuthToken:      string(o.AuthToken()),
		CardLast4:      o.CardLast4(),
		CreatedAt:      o.CreatedAt(),
	}
}

// ToOrderResponses converts a list of domain orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}
