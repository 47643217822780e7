// Package shopping manages the customers' carts.
package shopping

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/telemetry"
)

// CartService mutates and prices carts. Every operation on a customer's cart
// runs under that customer's key lock, the same lock checkout takes.
type CartService struct {
	carts    cart.Store
	products catalog.ProductRepository
	policy   pricing.Policy
	locker   shared.KeyLocker
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	carts cart.Store,
	products catalog.ProductRepository,
	policy pricing.Policy,
	locker shared.KeyLocker,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		policy:   policy,
		locker:   locker,
		logger:   logger,
	}
}

// AddItem puts quantity units of a product in the cart. Adding a product
// already in the cart accumulates onto its line.
func (s *CartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*CartView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_item")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID, "product_id", productID)

	if quantity <= 0 {
		return nil, cart.ErrInvalidQuantity
	}
	product, err := s.products.FindByID(ctx, normalizeProductID(productID))
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(customerID)
	defer unlock()

	c := s.carts.Cart(customerID)
	if err := c.Add(product, quantity); err != nil {
		return nil, err
	}
	s.logger.Debug("Cart item added",
		zap.String("customer_id", customerID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity))
	return s.view(customerID, c, pricing.DeliveryPickup)
}

// RemoveItem takes quantity units out of the cart. A quantity of zero or
// less, or one covering the whole line, removes the line.
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string, quantity int) (*CartView, error) {
	_, span := telemetry.StartServiceSpan(ctx, "cart", "remove_item")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID, "product_id", productID)

	unlock := s.locker.Lock(customerID)
	defer unlock()

	c := s.carts.Cart(customerID)
	if err := c.Remove(normalizeProductID(productID), quantity); err != nil {
		return nil, err
	}
	return s.view(customerID, c, pricing.DeliveryPickup)
}

// SetQuantity replaces the quantity of a line already in the cart, keeping
// its position. Zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, customerID, productID string, quantity int) (*CartView, error) {
	_, span := telemetry.StartServiceSpan(ctx, "cart", "set_quantity")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID, "product_id", productID)

	unlock := s.locker.Lock(customerID)
	defer unlock()

	c := s.carts.Cart(customerID)
	if err := c.SetQuantity(normalizeProductID(productID), quantity); err != nil {
		return nil, err
	}
	return s.view(customerID, c, pricing.DeliveryPickup)
}

// View prices the cart for a delivery method; an empty method means pickup
func (s *CartService) View(ctx context.Context, customerID string, delivery pricing.DeliveryMethod) (*CartView, error) {
	if delivery == "" {
		delivery = pricing.DeliveryPickup
	}
	if !delivery.IsValid() {
		return nil, pricing.ErrInvalidDelivery
	}

	unlock := s.locker.Lock(customerID)
	defer unlock()
	return s.view(customerID, s.carts.Cart(customerID), delivery)
}

// Clear empties the customer's cart
func (s *CartService) Clear(ctx context.Context, customerID string) {
	unlock := s.locker.Lock(customerID)
	defer unlock()
	s.carts.Cart(customerID).Clear()
}

func (s *CartService) view(customerID string, c *cart.Cart, delivery pricing.DeliveryMethod) (*CartView, error) {
	quote, err := s.policy.Quote(c.PricingLines(), delivery)
	if err != nil {
		return nil, err
	}
	return &CartView{
		CustomerID: customerID,
		Lines:      toLineViews(c.Lines()),
		ItemCount:  c.ItemCount(),
		Delivery:   delivery,
		Quote:      quote,
	}, nil
}

func normalizeProductID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
