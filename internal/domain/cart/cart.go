// Package cart holds the in-progress selection of products a customer
// intends to buy.
package cart

import (
	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
)

// MaxLineQuantity is the most units of one product a cart line may hold
const MaxLineQuantity = 999

var (
	ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero")
	ErrQuantityLimit   = shared.NewDomainError("QUANTITY_LIMIT_EXCEEDED", "A cart line holds at most 999 units")
	ErrItemNotInCart   = shared.NewDomainError("ITEM_NOT_IN_CART", "Product is not in the cart")
)

// Line is one product with its quantity. Quantity is always positive.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart keeps at most one line per distinct product, in the order products
// were first added. A Cart is not safe for concurrent use; callers
// serialize access per customer.
type Cart struct {
	lines   []Line
	version int
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// Add puts quantity units of a product in the cart, accumulating onto the
// existing line for that product. A line never exceeds MaxLineQuantity; an
// add that would push it over is rejected and leaves the cart unchanged.
func (c *Cart) Add(product catalog.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			if quantity > MaxLineQuantity-c.lines[i].Quantity {
				return quantityLimit(product.ID, c.lines[i].Quantity)
			}
			c.version++
			c.lines[i].Product = product
			c.lines[i].Quantity += quantity
			return nil
		}
	}
	if quantity > MaxLineQuantity {
		return quantityLimit(product.ID, 0)
	}
	c.version++
	c.lines = append(c.lines, Line{Product: product, Quantity: quantity})
	return nil
}

// Remove takes quantity units of a product out of the cart. A quantity of
// zero or less, or one covering the whole line, removes the line.
func (c *Cart) Remove(productID string, quantity int) error {
	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		c.version++
		if quantity <= 0 || quantity >= c.lines[i].Quantity {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		c.lines[i].Quantity -= quantity
		return nil
	}
	return ErrItemNotInCart.WithDetail("product_id", productID)
}

// SetQuantity replaces the quantity of a line in place; zero removes it
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxLineQuantity {
		return quantityLimit(productID, 0)
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			if quantity == 0 {
				return c.Remove(productID, 0)
			}
			c.version++
			c.lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotInCart.WithDetail("product_id", productID)
}

// Reprice swaps in the current catalog record of every product in the cart.
// Products not in the cart are ignored.
func (c *Cart) Reprice(products ...catalog.Product) {
	for _, p := range products {
		for i := range c.lines {
			if c.lines[i].Product.ID == p.ID {
				c.lines[i].Product = p
			}
		}
	}
}

// ProductIDs lists the products in the cart, in line order
func (c *Cart) ProductIDs() []string {
	out := make([]string, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.Product.ID
	}
	return out
}

func quantityLimit(productID string, held int) *shared.DomainError {
	return ErrQuantityLimit.
		WithDetail("product_id", productID).
		WithDetail("max", MaxLineQuantity).
		WithDetail("in_cart", held)
}

// Lines returns a snapshot of the cart lines
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty returns true when the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount returns the total quantity across lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Version increases on every mutation
func (c *Cart) Version() int {
	return c.version
}

// Clear empties the cart
func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.version++
	c.lines = nil
}

// PricingLines converts the cart to pricing lines using each product's
// effective price at the time of the call
func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, pricing.Line{UnitPrice: l.Product.EffectivePrice(), Quantity: l.Quantity})
	}
	return out
}
