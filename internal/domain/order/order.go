// Package order models completed purchases. An Order is immutable once
// built: it holds a snapshot of the cart lines as they were priced.
package order

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// AggregateTypeOrder is the aggregate type used in order events
const AggregateTypeOrder = "Order"

// ErrDuplicateOrder means an order id was appended twice
var ErrDuplicateOrder = shared.NewDomainError("DUPLICATE_ORDER", "Order already recorded")

// Line is a purchased product at the unit price charged
type Line struct {
	ProductID   string
	ProductName string
	UnitPrice   valueobject.Money
	Quantity    int
}

// Amount returns unit price times quantity
func (l Line) Amount() valueobject.Money {
	return l.UnitPrice.MultiplyByInt(int64(l.Quantity))
}

// Order is a completed, paid purchase
type Order struct {
	id         uuid.UUID
	customerID string
	lines      []Line
	delivery   pricing.DeliveryMethod
	quote      pricing.Quote
	authToken  payment.AuthToken
	cardLast4  string
	createdAt  time.Time
}

// Placement holds what checkout knows when a payment is approved
type Placement struct {
	CustomerID string
	Lines      []cart.Line
	Delivery   pricing.DeliveryMethod
	Quote      pricing.Quote
	AuthToken  payment.AuthToken
	CardLast4  string
}

// New builds an order from an approved checkout, snapshotting the lines at
// their effective prices
func New(p Placement) (*Order, error) {
	if strings.TrimSpace(p.CustomerID) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Order requires a customer")
	}
	if len(p.Lines) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Order requires at least one line")
	}
	if !p.Delivery.IsValid() {
		return nil, pricing.ErrInvalidDelivery
	}
	if p.AuthToken == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Order requires an authorization token")
	}

	lines := make([]Line, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, Line{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.EffectivePrice(),
			Quantity:    l.Quantity,
		})
	}
	return &Order{
		id:         uuid.New(),
		customerID: p.CustomerID,
		lines:      lines,
		delivery:   p.Delivery,
		quote:      p.Quote,
		authToken:  p.AuthToken,
		cardLast4:  p.CardLast4,
		createdAt:  time.Now(),
	}, nil
}

// Snapshot is the flat form of an order used by repositories
type Snapshot struct {
	ID         uuid.UUID
	CustomerID string
	Lines      []Line
	Delivery   pricing.DeliveryMethod
	Quote      pricing.Quote
	AuthToken  payment.AuthToken
	CardLast4  string
	CreatedAt  time.Time
}

// Restore rebuilds an order from storage
func Restore(s Snapshot) *Order {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return &Order{
		id:         s.ID,
		customerID: s.CustomerID,
		lines:      lines,
		delivery:   s.Delivery,
		quote:      s.Quote,
		authToken:  s.AuthToken,
		cardLast4:  s.CardLast4,
		createdAt:  s.CreatedAt,
	}
}

// Snapshot returns the flat form of the order
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:         o.id,
		CustomerID: o.customerID,
		Lines:      o.Lines(),
		Delivery:   o.delivery,
		Quote:      o.quote,
		AuthToken:  o.authToken,
		CardLast4:  o.cardLast4,
		CreatedAt:  o.createdAt,
	}
}

func (o *Order) ID() uuid.UUID                    { return o.id }
func (o *Order) CustomerID() string               { return o.customerID }
func (o *Order) Delivery() pricing.DeliveryMethod { return o.delivery }
func (o *Order) Quote() pricing.Quote             { return o.quote }
func (o *Order) Total() valueobject.Money         { return o.quote.Total }
func (o *Order) AuthToken() payment.AuthToken     { return o.authToken }
func (o *Order) CardLast4() string                { return o.cardLast4 }
func (o *Order) CreatedAt() time.Time             { return o.createdAt }

// Lines returns a copy of the order lines
func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}
