package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/interfaces/http/dto"
)

type cardRequest struct {
	Number   string `json:"card_number" binding:"required,card_number"`
	Expiry   string `json:"card_expiry" binding:"required,card_expiry"`
	Delivery string `json:"delivery_method" binding:"omitempty,delivery"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req cardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestValidation(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{
			name:       "valid request",
			body:       `{"card_number":"4111111111111111","card_expiry":"03/30","delivery_method":"mail","quantity":1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "card rules",
			body:       `{"card_number":"4111-1111","card_expiry":"13/30","quantity":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: []string{"card_number", "card_expiry"},
		},
		{
			name:       "unknown delivery and missing quantity",
			body:       `{"card_number":"4111111111111111","card_expiry":"03/2030","delivery_method":"drone"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: []string{"delivery_method", "quantity"},
		},
		{
			name:       "malformed json",
			body:       `{"card_number":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			fields := make([]string, 0, len(resp.Error.Fields))
			for _, f := range resp.Error.Fields {
				fields = append(fields, f.Field)
				assert.NotEqual(t, "Invalid value", f.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}
