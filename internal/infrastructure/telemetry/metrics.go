package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/order"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared"
)

// Prometheus metric names
const (
	MetricOrdersPlacedTotal        = "cos_orders_placed_total"
	MetricOrderRevenueTotal        = "cos_order_revenue_total"
	MetricOrderValue               = "cos_order_value"
	MetricPaymentDeclinesTotal     = "cos_payment_declines_total"
	MetricCustomersRegisteredTotal = "cos_customers_registered_total"
	MetricCustomersLockedTotal     = "cos_customers_locked_total"
	MetricHTTPRequestsTotal        = "cos_http_requests_total"
	MetricHTTPRequestDuration      = "cos_http_request_duration_seconds"
)

// OrderValueBuckets are histogram boundaries for order totals
var OrderValueBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500}

// Metrics owns a private Prometheus registry. It counts business outcomes by
// subscribing to domain events and HTTP traffic through a gin middleware.
//
// Thread Safety: safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced        *prometheus.CounterVec
	orderRevenue        prometheus.Counter
	orderValue          prometheus.Histogram
	paymentDeclines     *prometheus.CounterVec
	customersRegistered prometheus.Counter
	customersLocked     prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrdersPlacedTotal,
			Help: "Orders committed to the ledger",
		}, []string{"delivery"}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricOrderRevenueTotal,
			Help: "Sum of committed order totals",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricOrderValue,
			Help:    "Distribution of committed order totals",
			Buckets: OrderValueBuckets,
		}),
		paymentDeclines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPaymentDeclinesTotal,
			Help: "Declined authorization attempts",
		}, []string{"reason"}),
		customersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCustomersRegisteredTotal,
			Help: "Accounts opened",
		}),
		customersLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCustomersLockedTotal,
			Help: "Accounts locked by consecutive failed logins",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests handled",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersPlaced,
		m.orderRevenue,
		m.orderValue,
		m.paymentDeclines,
		m.customersRegistered,
		m.customersLocked,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EventTypes implements shared.EventHandler
func (m *Metrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		payment.EventTypePaymentDeclined,
		identity.EventTypeCustomerRegistered,
		identity.EventTypeCustomerLocked,
	}
}

// Handle implements shared.EventHandler
func (m *Metrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		total, _ := e.Total.Amount().Float64()
		m.ordersPlaced.WithLabelValues(string(e.Delivery)).Inc()
		m.orderRevenue.Add(total)
		m.orderValue.Observe(total)
	case *payment.PaymentDeclinedEvent:
		m.paymentDeclines.WithLabelValues(string(e.Reason)).Inc()
	case *identity.CustomerRegisteredEvent:
		m.customersRegistered.Inc()
	case *identity.CustomerLockedEvent:
		m.customersLocked.Inc()
	}
	return nil
}

// GinMiddleware records request counts and latency per matched route.
// Unmatched paths are folded into one label value to bound cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

var _ shared.EventHandler = (*Metrics)(nil)
