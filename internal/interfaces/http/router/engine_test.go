package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/cos/backend/internal/application/catalog"
	"github.com/cos/backend/internal/application/checkout"
	appidentity "github.com/cos/backend/internal/application/identity"
	"github.com/cos/backend/internal/application/shopping"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/cache"
	"github.com/cos/backend/internal/infrastructure/config"
	"github.com/cos/backend/internal/infrastructure/event"
	"github.com/cos/backend/internal/infrastructure/lock"
	"github.com/cos/backend/internal/infrastructure/persistence"
	"github.com/cos/backend/internal/infrastructure/telemetry"
	"github.com/cos/backend/internal/interfaces/http/handler"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	engine  *gin.Engine
	metrics *telemetry.Metrics
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	log := zap.NewNop()

	customers := persistence.NewMemoryCustomerRepository()
	sessions := persistence.NewMemorySessionRegistry()
	carts := persistence.NewMemoryCartStore()
	ledger := persistence.NewMemoryOrderLedger()
	products := persistence.NewMemoryProductRepository(persistence.DefaultProducts()...)
	locker := lock.NewStripedLocker(16)
	policy := pricing.DefaultPolicy()

	metrics := telemetry.NewMetrics()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(metrics)
	require.NoError(t, bus.Start(t.Context()))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                   "test-secret-key-32-characters-long",
		AccessTokenExpiration:    time.Hour,
		ChallengeTokenExpiration: 5 * time.Minute,
		Issuer:                   "cos-test",
	})
	authService := appidentity.NewAuthService(customers, sessions, locker, bus, jwtService, log)
	checkoutService := checkout.NewService(
		customers, sessions, carts,
		persistence.NewMemoryOrderCommitter(customers, ledger), ledger,
		payment.NewAuthorizer(), policy, locker, checkout.DefaultConfig(), log,
	)
	checkoutService.SetEventPublisher(bus)
	checkoutService.SetCatalog(products)
	idem := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idem.Close() })
	checkoutService.SetIdempotencyStore(idem)

	var limiter *middleware.RateLimiter
	if loginLimit > 0 {
		limiter = middleware.NewRateLimiter(loginLimit, time.Minute)
		t.Cleanup(limiter.Stop)
	}

	engine := NewEngine(Dependencies{
		HTTP:         config.HTTPConfig{MaxBodySize: 1 << 20},
		Tracing:      middleware.TracingConfig{Enabled: false},
		Logger:       log,
		JWT:          jwtService,
		Sessions:     sessions,
		Metrics:      metrics,
		LoginLimiter: limiter,
		Swagger:      true,
		Handlers: Handlers{
			System:   handler.NewSystemHandler("test"),
			Account:  handler.NewAccountHandler(appidentity.NewAccountService(customers, locker, bus, log)),
			Auth:     handler.NewAuthHandler(authService),
			Product:  handler.NewProductHandler(appcatalog.NewProductService(products)),
			Cart:     handler.NewCartHandler(shopping.NewCartService(carts, products, policy, locker, log)),
			Checkout: handler.NewCheckoutHandler(checkoutService),
		},
	})
	return &testServer{engine: engine, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func registration(id string) map[string]any {
	return map[string]any{
		"id":               id,
		"secret":           "Abc123!",
		"name":             "Alice Smith",
		"address":          "1 Main St",
		"card_number":      "4111111111111111",
		"card_holder":      "Alice Smith",
		"card_expiry":      fmt.Sprintf("03/%d", time.Now().Year()+2),
		"card_cvv":         "123",
		"challenge_index":  0,
		"challenge_answer": "Springfield",
	}
}

// login registers id and runs both factors, returning the access token
func (s *testServer) login(t *testing.T, id string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/api/v1/accounts", "", registration(id))
	require.Equal(t, http.StatusCreated, status)

	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"customer_id": id, "secret": "Abc123!"})
	require.Equal(t, http.StatusOK, status)
	var challenge handler.LoginResponse
	require.NoError(t, json.Unmarshal(resp.Data, &challenge))

	status, resp = s.do(t, http.MethodPost, "/api/v1/auth/challenge", "", map[string]any{
		"challenge_token": challenge.ChallengeToken,
		"answer":          "Springfield",
	})
	require.Equal(t, http.StatusOK, status)
	var token handler.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	return token.AccessToken
}

func TestEngine_ShoppingFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "alice")

	status, resp := s.do(t, http.MethodGet, "/api/v1/accounts/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me handler.CustomerResponse
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, "**** **** **** 1111", me.Card)
	assert.Equal(t, "1000.00", me.CardBalance.String())

	status, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "p3", "quantity": 1})
	require.Equal(t, http.StatusOK, status)

	status, resp = s.do(t, http.MethodGet, "/api/v1/cart?delivery=mail", token, nil)
	require.Equal(t, http.StatusOK, status)
	var view shopping.CartView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "199.99", view.Quote.Subtotal.String())
	assert.Equal(t, "16.00", view.Quote.Tax.String())
	assert.Equal(t, "218.99", view.Quote.Total.String())

	status, resp = s.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]any{"delivery_method": "pickup"})
	require.Equal(t, http.StatusCreated, status)
	var receipt handler.CheckoutResponse
	require.NoError(t, json.Unmarshal(resp.Data, &receipt))
	assert.Equal(t, "215.99", receipt.Order.Total.String())
	assert.Equal(t, 1, receipt.Attempts)
	assert.Equal(t, "1111", receipt.Order.CardLast4)

	status, resp = s.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, status)
	var orders []checkout.OrderResponse
	require.NoError(t, json.Unmarshal(resp.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, receipt.Order.ID, orders[0].ID)

	status, resp = s.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]any{"delivery_method": "pickup"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EMPTY_CART", resp.Error.Code)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, resp = s.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "NOT_AUTHENTICATED", resp.Error.Code)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cos_orders_placed_total{delivery="pickup"} 1`)
	assert.Contains(t, w.Body.String(), "cos_customers_registered_total 1")
}

func TestEngine_CartQuantities(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "dave")

	status, _ := s.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "P3", "quantity": 2})
	require.Equal(t, http.StatusOK, status)

	status, resp := s.do(t, http.MethodPut, "/api/v1/cart/items/p3", token, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, status)
	var view shopping.CartView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"add over the binding cap", http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "P3", "quantity": 1000}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"add past the line limit", http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "P3", "quantity": 995}, http.StatusBadRequest, "QUANTITY_LIMIT_EXCEEDED"},
		{"set over the binding cap", http.MethodPut, "/api/v1/cart/items/P3", map[string]any{"quantity": 1000}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"set without quantity", http.MethodPut, "/api/v1/cart/items/P3", map[string]any{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"set a line not in the cart", http.MethodPut, "/api/v1/cart/items/P1", map[string]any{"quantity": 1}, http.StatusNotFound, "ITEM_NOT_IN_CART"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	status, resp = s.do(t, http.MethodPut, "/api/v1/cart/items/P3", token, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Empty(t, view.Lines)
}

func TestEngine_PaymentDeclines(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "bob")

	// four laptops at 899.99 exceed the 1000.00 balance
	status, _ := s.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "P1", "quantity": 4})
	require.Equal(t, http.StatusOK, status)

	t.Run("no replacement fails after the first decline", func(t *testing.T) {
		status, resp := s.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]any{"delivery_method": "pickup"})
		assert.Equal(t, http.StatusPaymentRequired, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "PAYMENT_FAILED", resp.Error.Code)
		assert.EqualValues(t, 1, resp.Error.Details["attempts"])
		assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Details["last_reason"])
	})

	t.Run("replacement card pays", func(t *testing.T) {
		status, resp := s.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]any{
			"delivery_method": "mail",
			"replacement_cards": []map[string]any{
				{"card_number": "12", "card_expiry": "01/30"},
				{"card_number": "5500000000000004", "card_holder": "Bob", "card_expiry": fmt.Sprintf("01/%d", time.Now().Year()+3), "card_balance": "10000.00"},
			},
		}, handler.IdempotencyKeyHeader, "k-1")
		require.Equal(t, http.StatusCreated, status)
		var receipt handler.CheckoutResponse
		require.NoError(t, json.Unmarshal(resp.Data, &receipt))
		assert.Equal(t, 3, receipt.Attempts)
		assert.True(t, receipt.InstrumentReplaced)
		assert.Equal(t, "0004", receipt.Order.CardLast4)
	})

	t.Run("same idempotency key is refused", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": "P3", "quantity": 1})
		require.Equal(t, http.StatusOK, status)

		status, resp := s.do(t, http.MethodPost, "/api/v1/checkout", token,
			map[string]any{"delivery_method": "pickup"}, handler.IdempotencyKeyHeader, "k-1")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "DUPLICATE_REQUEST", resp.Error.Code)
	})
}

func TestEngine_Errors(t *testing.T) {
	s := newTestServer(t, 3)
	s.login(t, "carol")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"duplicate id", http.MethodPost, "/api/v1/accounts", registration("carol"), http.StatusConflict, "DUPLICATE_ID"},
		{"unknown product", http.MethodGet, "/api/v1/products/P99", nil, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"cart needs a token", http.MethodGet, "/api/v1/cart", nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"malformed body", http.MethodPost, "/api/v1/auth/login", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", map[string]any{"customer_id": "carol", "secret": "Wrong1!"}, http.StatusUnauthorized, "BAD_CREDENTIAL"},
		{"login rate limited", http.MethodPost, "/api/v1/auth/login", map[string]any{"customer_id": "carol", "secret": "Wrong1!"}, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if raw, ok := tt.body.(string); ok {
				req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(raw))
				req.Header.Set("Content-Type", "application/json")
				w := httptest.NewRecorder()
				s.engine.ServeHTTP(w, req)
				assert.Equal(t, tt.wantStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.wantCode)
				return
			}
			status, resp := s.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEngine_SwaggerDocs(t *testing.T) {
	s := newTestServer(t, 0)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/checkout")
	assert.Contains(t, doc.Paths["/cart/items/{product_id}"], "put")
	assert.Contains(t, doc.Paths["/cart/items/{product_id}"], "delete")
}
