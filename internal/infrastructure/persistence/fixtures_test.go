package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/infrastructure/config"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestCustomer(t *testing.T, id string) *identity.Customer {
	t.Helper()
	c, err := identity.NewCustomer(identity.Registration{
		ID:             id,
		Secret:         "Abc123!",
		Name:           "Test " + id,
		Address:        "1 Main St",
		Instrument:     payment.NewInstrument("4111111111111111", "Test", payment.Expiry{Year: 2031, Month: time.March}, "123", payment.DefaultBalance),
		ChallengeIndex: 0,
		Answer:         "Springfield",
	})
	require.NoError(t, err)
	return c
}

func newTestOrder(t *testing.T, customerID string, products ...string) *order.Order {
	t.Helper()
	catalogue := NewMemoryProductRepository(DefaultProducts()...)
	c := cart.New()
	for _, id := range products {
		p, err := catalogue.FindByID(t.Context(), id)
		require.NoError(t, err)
		require.NoError(t, c.Add(p, 1))
	}
	quote, err := pricing.DefaultPolicy().Quote(c.PricingLines(), pricing.DeliveryPickup)
	require.NoError(t, err)
	o, err := order.New(order.Placement{
		CustomerID: customerID,
		Lines:      c.Lines(),
		Delivery:   pricing.DeliveryPickup,
		Quote:      quote,
		AuthToken:  payment.AuthToken("AUTH-TEST"),
		CardLast4:  "1111",
	})
	require.NoError(t, err)
	return o
}

func money(s string) valueobject.Money {
	return valueobject.MustMoney(s)
}
