package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/infrastructure/lock"
	"github.com/cos/backend/internal/infrastructure/persistence"
)

// MockOrderCommitter is a mock implementation of OrderCommitter
type MockOrderCommitter struct {
	mock.Mock
}

func (m *MockOrderCommitter) CommitOrder(ctx context.Context, c *identity.Customer, o *order.Order) error {
	return m.Called(ctx, c, o).Error(0)
}

// capturePublisher records published events
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

var widget = catalog.Product{
	ID:           "W1",
	Name:         "Widget",
	RegularPrice: valueobject.MustMoney("100.00"),
}

type testEnv struct {
	customers *persistence.MemoryCustomerRepository
	sessions  *persistence.MemorySessionRegistry
	carts     *persistence.MemoryCartStore
	products  *persistence.MemoryProductRepository
	ledger    *persistence.MemoryOrderLedger
	locker    *lock.StripedLocker
	publisher *capturePublisher
	svc       *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		customers: persistence.NewMemoryCustomerRepository(),
		sessions:  persistence.NewMemorySessionRegistry(),
		carts:     persistence.NewMemoryCartStore(),
		products:  persistence.NewMemoryProductRepository(widget),
		ledger:    persistence.NewMemoryOrderLedger(),
		locker:    lock.NewStripedLocker(16),
		publisher: &capturePublisher{},
	}
	env.svc = env.newService(persistence.NewMemoryOrderCommitter(env.customers, env.ledger))
	return env
}

func (env *testEnv) newService(committer OrderCommitter) *Service {
	svc := NewService(
		env.customers,
		env.sessions,
		env.carts,
		committer,
		env.ledger,
		payment.NewAuthorizer(),
		pricing.DefaultPolicy(),
		env.locker,
		DefaultConfig(),
		zap.NewNop(),
	)
	svc.SetEventPublisher(env.publisher)
	svc.SetCatalog(env.products)
	return svc
}

func card(number, balance string) payment.Instrument {
	return payment.NewInstrument(
		number,
		"Alice Smith",
		payment.Expiry{Year: time.Now().Year() + 2, Month: time.March},
		"123",
		valueobject.MustMoney(balance),
	)
}

func expiredCard(number, balance string) payment.Instrument {
	instr := card(number, balance)
	instr.Expiry = payment.Expiry{Year: time.Now().Year() - 1, Month: time.January}
	return instr
}

// signIn registers a customer holding instr, starts a session and puts
// quantity widgets in the cart
func (env *testEnv) signIn(t *testing.T, id string, instr payment.Instrument, quantity int) {
	t.Helper()
	c, err := identity.NewCustomer(identity.Registration{
		ID:         id,
		Secret:     "Abc123!",
		Name:       "Alice Smith",
		Address:    "1 Main St",
		Instrument: instr,
		Answer:     "Springfield",
	})
	require.NoError(t, err)
	require.NoError(t, env.customers.Create(t.Context(), c))
	require.NoError(t, env.sessions.Begin(t.Context(), id))
	if quantity > 0 {
		require.NoError(t, env.carts.Cart(id).Add(widget, quantity))
	}
}

func (env *testEnv) balance(t *testing.T, id string) string {
	t.Helper()
	c, err := env.customers.FindByID(t.Context(), id)
	require.NoError(t, err)
	return c.Instrument.Balance.String()
}

func (env *testEnv) orders(t *testing.T, id string) []*order.Order {
	t.Helper()
	orders, err := env.ledger.OrdersFor(t.Context(), id)
	require.NoError(t, err)
	return orders
}
