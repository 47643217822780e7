package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/domain/cart"
	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/interfaces/http/dto"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails map[string]any
	}{
		{
			name:       "domain error",
			err:        cart.ErrItemNotInCart,
			wantStatus: http.StatusNotFound,
			wantCode:   "ITEM_NOT_IN_CART",
		},
		{
			name:        "wrapped domain error keeps details",
			err:         fmt.Errorf("login: %w", identity.ErrBadCredential.WithDetail("remaining_attempts", 2)),
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "BAD_CREDENTIAL",
			wantDetails: map[string]any{"remaining_attempts": float64(2)},
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			router := gin.New()
			router.Use(middleware.RequestID())
			router.GET("/test", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Equal(t, tt.wantDetails, resp.Error.Details)
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}

func TestBaseHandler_CustomerIDRequired(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		if h.customerID(c) == "" {
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("1.2.3")
	h.AddCheck("database", func(ctx context.Context) error { return nil })

	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	h.AddCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}
