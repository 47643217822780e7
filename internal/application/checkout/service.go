// Package checkout turns a customer's cart into a paid, recorded order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/infrastructure/event"
	"github.com/cos/backend/internal/infrastructure/telemetry"
)

// OrderCommitter stores the debited customer and appends the order as one
// unit of work: either both are persisted or neither is.
type OrderCommitter interface {
	CommitOrder(ctx context.Context, customer *identity.Customer, o *order.Order) error
}

// Config holds checkout settings
type Config struct {
	// MaxAttempts is the number of authorizations one checkout may try
	MaxAttempts int
	// IdempotencyTTL is how long a fulfilled Idempotency-Key is remembered
	IdempotencyTTL time.Duration
}

// DefaultConfig returns three attempts and a one day idempotency window
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    payment.DefaultMaxAttempts,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Service places orders. Each authorization round runs under the customer's
// key lock: price, authorize, commit and clear the cart. The lock is released
// before the caller is asked for a replacement instrument, so a caller that
// never answers cannot block the customer's other operations.
type Service struct {
	customers  identity.CustomerRepository
	sessions   identity.SessionRegistry
	carts      cart.Store
	committer  OrderCommitter
	ledger     order.Ledger
	authorizer *payment.Authorizer
	policy     pricing.Policy
	locker     shared.KeyLocker
	config     Config
	logger     *zap.Logger

	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	products    catalog.ProductRepository
}

// NewService creates a checkout service
func NewService(
	customers identity.CustomerRepository,
	sessions identity.SessionRegistry,
	carts cart.Store,
	committer OrderCommitter,
	ledger order.Ledger,
	authorizer *payment.Authorizer,
	policy pricing.Policy,
	locker shared.KeyLocker,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = payment.DefaultMaxAttempts
	}
	return &Service{
		customers:  customers,
		sessions:   sessions,
		carts:      carts,
		committer:  committer,
		ledger:     ledger,
		authorizer: authorizer,
		policy:     policy,
		locker:     locker,
		config:     config,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for OrderPlaced and PaymentDeclined
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetCatalog makes every authorization round price the cart from the current
// catalog records instead of the ones captured when the items were added
func (s *Service) SetCatalog(products catalog.ProductRepository) {
	s.products = products
}

// round is the result of one locked authorization round
type round struct {
	order    *order.Order
	customer *identity.Customer

	// set when the charge was declined
	reason payment.DeclineReason
	amount valueobject.Money
	last4  string
}

func (r *round) approved() bool {
	return r.order != nil
}

// PlaceOrder checks out the customer's cart. The stored instrument is tried
// first; after each decline with attempts left, req.Replacements is asked for
// another card. On approval the debited card (the replacement, if one paid)
// is stored with the customer, the order is appended and the cart is cleared.
// On failure nothing changes and the cart is kept.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Receipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "place_order")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID,
		telemetry.SpanAttrDelivery, string(req.Delivery),
	)
	if s.idempotencyKey(req) != "" {
		telemetry.SetAttributes(span, telemetry.SpanAttrIdempotencyKey, req.IdempotencyKey)
	}

	provider := req.Replacements
	if provider == nil {
		provider = NoReplacement
	}

	var (
		replacement *payment.Instrument
		lastReason  payment.DeclineReason
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if attempt == 1 {
				telemetry.RecordError(span, err)
				return nil, err
			}
			return nil, s.fail(span, req.CustomerID, paymentFailed(attempt-1, lastReason), err)
		}

		r, err := s.authorizeRound(ctx, req, attempt, replacement)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		if r.approved() {
			s.publish(ctx, r.customer, order.NewOrderPlacedEvent(r.order))
			telemetry.SetAttributes(span,
				telemetry.SpanAttrOrderID, r.order.ID().String(),
				telemetry.SpanAttrAttempt, attempt,
			)
			s.logger.Info("Order placed",
				zap.String("customer_id", req.CustomerID),
				zap.String("order_id", r.order.ID().String()),
				zap.String("total", r.order.Total().String()),
				zap.Int("attempts", attempt),
			)
			return &Receipt{
				Order:              ToOrderResponse(r.order),
				Attempts:           attempt,
				InstrumentReplaced: replacement != nil,
			}, nil
		}

		lastReason = r.reason
		s.publish(ctx, nil, payment.NewPaymentDeclinedEvent(req.CustomerID, attempt, r.reason, r.amount, r.last4))
		telemetry.AddEvent(span, "payment_declined",
			telemetry.SpanAttrAttempt, attempt,
			telemetry.SpanAttrDeclineReason, string(r.reason),
		)
		s.logger.Info("Payment declined",
			zap.String("customer_id", req.CustomerID),
			zap.Int("attempt", attempt),
			zap.String("reason", string(r.reason)),
		)

		decision := payment.DecideRetry(attempt, s.config.MaxAttempts)
		if !decision.Retry {
			return nil, s.fail(span, req.CustomerID, paymentFailed(attempt, lastReason), nil)
		}

		next, err := provider.ReplacementInstrument(ctx, ReplacementRequest{
			CustomerID:   req.CustomerID,
			Attempt:      attempt,
			AttemptsLeft: decision.AttemptsLeft,
			Reason:       r.reason,
			Amount:       r.amount,
		})
		if err != nil {
			if errors.Is(err, ErrAbort) {
				err = nil
			}
			return nil, s.fail(span, req.CustomerID, paymentFailed(attempt, lastReason), err)
		}
		replacement = &next
	}
}

// authorizeRound runs one price-authorize-commit round under the customer lock.
// A decline is reported through the round, not as an error.
func (s *Service) authorizeRound(ctx context.Context, req PlaceOrderRequest, attempt int, replacement *payment.Instrument) (*round, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "authorize",
		telemetry.WithAttribute(telemetry.SpanAttrAttempt, attempt),
	)
	defer span.End()

	unlock := s.locker.Lock(req.CustomerID)
	defer unlock()

	active, err := s.sessions.IsActive(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !active {
		return nil, ErrNotAuthenticated
	}

	key := s.idempotencyKey(req)
	if key != "" {
		orderID, found, err := s.idempotency.Recall(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if found {
			return nil, ErrDuplicateRequest.WithDetail("order_id", orderID)
		}
	}

	c := s.carts.Cart(req.CustomerID)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !req.Delivery.IsValid() {
		return nil, ErrInvalidDelivery
	}

	if err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	quote, err := s.policy.Quote(c.PricingLines(), req.Delivery)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, quote.Total.String())

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	instr := customer.Instrument
	if replacement != nil {
		instr = *replacement
	}
	token, err := s.authorizer.Authorize(&instr, quote.Total)
	if err != nil {
		reason, ok := payment.ReasonOf(err)
		if !ok {
			return nil, err
		}
		telemetry.SetAttributes(span, telemetry.SpanAttrDeclineReason, string(reason))
		return &round{reason: reason, amount: quote.Total, last4: instr.Last4()}, nil
	}

	if err := customer.ReplaceInstrument(instr); err != nil {
		return nil, err
	}
	o, err := order.New(order.Placement{
		CustomerID: req.CustomerID,
		Lines:      c.Lines(),
		Delivery:   req.Delivery,
		Quote:      quote,
		AuthToken:  token,
		CardLast4:  instr.Last4(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.committer.CommitOrder(ctx, customer, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	c.Clear()

	if key != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, key, o.ID().String(), s.config.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to record idempotency key",
				zap.String("customer_id", req.CustomerID),
				zap.Error(err),
			)
		}
	}
	return &round{order: o, customer: customer}, nil
}

// OrdersFor returns the customer's orders, oldest first
func (s *Service) OrdersFor(ctx context.Context, customerID string) ([]OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "orders_for")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID)

	orders, err := s.ledger.OrdersFor(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// reprice refreshes the cart's products from the catalog. A product that has
// left the catalog fails the round with PRODUCT_NOT_FOUND and the cart is kept.
func (s *Service) reprice(ctx context.Context, c *cart.Cart) error {
	if s.products == nil {
		return nil
	}
	ids := c.ProductIDs()
	current := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return err
		}
		current = append(current, p)
	}
	c.Reprice(current...)
	return nil
}

// idempotencyKey namespaces the request key per customer, or returns "" when
// idempotency is off for this request
func (s *Service) idempotencyKey(req PlaceOrderRequest) string {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return ""
	}
	return "checkout:" + req.CustomerID + ":" + req.IdempotencyKey
}

func (s *Service) publish(ctx context.Context, customer *identity.Customer, events ...shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish checkout events", zap.Error(err))
	}
	if customer != nil {
		if err := event.PublishPending(ctx, s.publisher, customer); err != nil {
			s.logger.Warn("Failed to publish customer events", zap.Error(err))
		}
	}
}

// fail records the PAYMENT_FAILED outcome. cause, when set, is wrapped so
// callers can still match context.Canceled and friends.
func (s *Service) fail(span trace.Span, customerID string, domainErr *shared.DomainError, cause error) error {
	var err error = domainErr
	if cause != nil {
		err = fmt.Errorf("%w: %w", domainErr, cause)
	}
	telemetry.RecordError(span, err)
	s.logger.Warn("Checkout failed",
		zap.String("customer_id", customerID),
		zap.Any("details", domainErr.Details),
		zap.Error(cause),
	)
	return err
}
