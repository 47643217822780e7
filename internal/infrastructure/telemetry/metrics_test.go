package telemetry_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/catalog"
	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/infrastructure/telemetry"
)

func placedOrder(t *testing.T, delivery pricing.DeliveryMethod) *order.Order {
	t.Helper()
	p, err := catalog.NewProduct("P1", "Laptop", "", valueobject.MustMoney("100"), valueobject.Zero())
	require.NoError(t, err)
	c := cart.New()
	require.NoError(t, c.Add(p, 2))
	quote, err := pricing.DefaultPolicy().Quote(c.PricingLines(), delivery)
	require.NoError(t, err)
	o, err := order.New(order.Placement{
		CustomerID: "alice",
		Lines:      c.Lines(),
		Delivery:   delivery,
		Quote:      quote,
		AuthToken:  "AUTH-1",
		CardLast4:  "1111",
	})
	require.NoError(t, err)
	return o
}

func TestMetrics_HandleEvents(t *testing.T) {
	m := telemetry.NewMetrics()

	require.NoError(t, m.Handle(t.Context(), order.NewOrderPlacedEvent(placedOrder(t, pricing.DeliveryPickup))))
	require.NoError(t, m.Handle(t.Context(), order.NewOrderPlacedEvent(placedOrder(t, pricing.DeliveryMail))))
	for range 3 {
		require.NoError(t, m.Handle(t.Context(),
			payment.NewPaymentDeclinedEvent("bob", 1, payment.ReasonInsufficientFunds, valueobject.MustMoney("216"), "1111")))
	}
	require.NoError(t, m.Handle(t.Context(),
		payment.NewPaymentDeclinedEvent("bob", 1, payment.ReasonExpired, valueobject.MustMoney("216"), "1111")))

	c := &identity.Customer{ID: "carol"}
	require.NoError(t, m.Handle(t.Context(), identity.NewCustomerRegisteredEvent(c)))
	require.NoError(t, m.Handle(t.Context(), identity.NewCustomerLockedEvent(c)))

	expected := `
# HELP cos_payment_declines_total Declined authorization attempts
# TYPE cos_payment_declines_total counter
cos_payment_declines_total{reason="INSTRUMENT_EXPIRED"} 1
cos_payment_declines_total{reason="INSUFFICIENT_FUNDS"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), telemetry.MetricPaymentDeclinesTotal))

	expected = `
# HELP cos_orders_placed_total Orders committed to the ledger
# TYPE cos_orders_placed_total counter
cos_orders_placed_total{delivery="mail"} 1
cos_orders_placed_total{delivery="pickup"} 1
# HELP cos_order_revenue_total Sum of committed order totals
# TYPE cos_order_revenue_total counter
cos_order_revenue_total 435
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		telemetry.MetricOrdersPlacedTotal, telemetry.MetricOrderRevenueTotal))

	count, err := testutil.GatherAndCount(m.Registry(), telemetry.MetricOrderValue)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected = `
# HELP cos_customers_locked_total Accounts locked by consecutive failed logins
# TYPE cos_customers_locked_total counter
cos_customers_locked_total 1
# HELP cos_customers_registered_total Accounts opened
# TYPE cos_customers_registered_total counter
cos_customers_registered_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		telemetry.MetricCustomersLockedTotal, telemetry.MetricCustomersRegisteredTotal))
}

func TestMetrics_EventTypes(t *testing.T) {
	m := telemetry.NewMetrics()
	assert.ElementsMatch(t, []string{
		order.EventTypeOrderPlaced,
		payment.EventTypePaymentDeclined,
		identity.EventTypeCustomerRegistered,
		identity.EventTypeCustomerLocked,
	}, m.EventTypes())
}

func TestMetrics_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := telemetry.NewMetrics()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/v1/products/P1", "/api/v1/products/P2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	expected := `
# HELP cos_http_requests_total HTTP requests handled
# TYPE cos_http_requests_total counter
cos_http_requests_total{method="GET",route="/api/v1/products/:id",status="200"} 2
cos_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), telemetry.MetricHTTPRequestsTotal))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), telemetry.MetricHTTPRequestDuration)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
