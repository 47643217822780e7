package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/config"
	"github.com/cos/backend/internal/infrastructure/lock"
	"github.com/cos/backend/internal/infrastructure/persistence"
)

// MockCustomerRepository is a mock implementation of identity.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *identity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *identity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id string) (*identity.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
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

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type testEnv struct {
	customers *persistence.MemoryCustomerRepository
	sessions  *persistence.MemorySessionRegistry
	publisher *capturePublisher
	tokens    *auth.JWTService
	accounts  *AccountService
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		customers: persistence.NewMemoryCustomerRepository(),
		sessions:  persistence.NewMemorySessionRegistry(),
		publisher: &capturePublisher{},
		tokens: auth.NewJWTService(config.JWTConfig{
			Secret:                   "test-secret-key-for-unit-tests-only",
			AccessTokenExpiration:    15 * time.Minute,
			ChallengeTokenExpiration: 5 * time.Minute,
			Issuer:                   "cos-test",
		}),
	}
	locker := lock.NewStripedLocker(16)
	env.accounts = NewAccountService(env.customers, locker, env.publisher, zap.NewNop())
	env.auth = NewAuthService(env.customers, env.sessions, locker, env.publisher, env.tokens, zap.NewNop())
	return env
}

func validInput(id string) RegisterInput {
	return RegisterInput{
		ID:              id,
		Secret:          "Abc123!",
		Name:            "Alice Smith",
		Address:         "1 Main St",
		CardNumber:      "4111111111111111",
		CardHolder:      "Alice Smith",
		CardExpiry:      payment.Expiry{Year: time.Now().Year() + 2, Month: time.March},
		CardCVV:         "123",
		ChallengeIndex:  0,
		ChallengeAnswer: "Springfield",
	}
}

func (env *testEnv) register(t *testing.T, id string) {
	t.Helper()
	_, err := env.accounts.Register(t.Context(), validInput(id))
	require.NoError(t, err)
}
