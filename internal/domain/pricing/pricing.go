// Package pricing computes cart totals. Everything here is pure: the same
// lines and policy always produce the same quote.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// Default policy values
var (
	DefaultTaxRate = decimal.RequireFromString("0.08")
	DefaultMailFee = valueobject.MustMoney("3.00")
)

// Line is a priced cart line: the effective unit price at pricing time and a quantity
type Line struct {
	UnitPrice valueobject.Money
	Quantity  int
}

// Amount returns unit price times quantity
func (l Line) Amount() valueobject.Money {
	return l.UnitPrice.MultiplyByInt(int64(l.Quantity))
}

// Quote is the breakdown of an order total
type Quote struct {
	Subtotal    valueobject.Money `json:"subtotal"`
	Tax         valueobject.Money `json:"tax"`
	DeliveryFee valueobject.Money `json:"delivery_fee"`
	Total       valueobject.Money `json:"total"`
}

// Policy holds the tax rate and the delivery fee schedule
type Policy struct {
	TaxRate decimal.Decimal
	MailFee valueobject.Money
}

// DefaultPolicy returns 8% tax and a 3.00 mail fee; pickup is always free
func DefaultPolicy() Policy {
	return Policy{
		TaxRate: DefaultTaxRate,
		MailFee: DefaultMailFee,
	}
}

// EffectivePrice returns the sale price when it is set and strictly lower
// than the regular price, otherwise the regular price.
func EffectivePrice(regular, sale valueobject.Money) valueobject.Money {
	if sale.IsPositive() && sale.LessThan(regular) {
		return sale
	}
	return regular
}

// Subtotal sums the line amounts
func Subtotal(lines []Line) valueobject.Money {
	total := valueobject.Zero()
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Tax applies the tax rate to a subtotal and rounds to cents
func (p Policy) Tax(subtotal valueobject.Money) valueobject.Money {
	return subtotal.Multiply(p.TaxRate).RoundCents()
}

// Fee returns the delivery fee for a method
func (p Policy) Fee(method DeliveryMethod) (valueobject.Money, error) {
	switch method {
	case DeliveryMail:
		return p.MailFee, nil
	case DeliveryPickup:
		return valueobject.Zero(), nil
	default:
		return valueobject.Money{}, ErrInvalidDelivery
	}
}

// Quote prices the given lines for a delivery method
func (p Policy) Quote(lines []Line, method DeliveryMethod) (Quote, error) {
	fee, err := p.Fee(method)
	if err != nil {
		return Quote{}, err
	}
	subtotal := Subtotal(lines)
	tax := p.Tax(subtotal)
	return Quote{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}, nil
}
