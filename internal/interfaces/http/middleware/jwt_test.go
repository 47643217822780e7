package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/config"
	"github.com/cos/backend/internal/infrastructure/persistence"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                   "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:    15 * time.Minute,
		ChallengeTokenExpiration: 5 * time.Minute,
		Issuer:                   "test-issuer",
	})
}

type failingSessions struct{}

func (failingSessions) IsActive(context.Context, string) (bool, error) {
	return false, errors.New("registry unavailable")
}

func newAuthRouter(jwtService *auth.JWTService, sessions SessionChecker) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(jwtService, sessions))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customer_id": GetCustomerID(c)})
	})
	return router
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	sessions := persistence.NewMemorySessionRegistry()
	require.NoError(t, sessions.Begin(context.Background(), "alice"))

	access, err := jwtService.IssueAccessToken("alice")
	require.NoError(t, err)
	challenge, err := jwtService.IssueChallengeToken("alice")
	require.NoError(t, err)
	bobAccess, err := jwtService.IssueAccessToken("bob")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token and active session", "Bearer " + access.Token, http.StatusOK, `"customer_id":"alice"`},
		{"missing header", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"challenge token is not an access token", "Bearer " + challenge.Token, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"no active session", "Bearer " + bobAccess.Token, http.StatusUnauthorized, "NOT_AUTHENTICATED"},
	}

	router := newAuthRouter(jwtService, sessions)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestJWTAuthMiddleware_LogoutRevokesToken(t *testing.T) {
	jwtService := newTestJWTService()
	sessions := persistence.NewMemorySessionRegistry()
	require.NoError(t, sessions.Begin(context.Background(), "alice"))
	access, err := jwtService.IssueAccessToken("alice")
	require.NoError(t, err)

	router := newAuthRouter(jwtService, sessions)
	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+access.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	require.NoError(t, sessions.End(context.Background(), "alice"))
	assert.Equal(t, http.StatusUnauthorized, do())
}

func TestJWTAuthMiddleware_SessionLookupFailure(t *testing.T) {
	jwtService := newTestJWTService()
	access, err := jwtService.IssueAccessToken("alice")
	require.NoError(t, err)

	router := newAuthRouter(jwtService, failingSessions{})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, "Bearer "+access.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	var got error
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: newTestJWTService(),
		OnError: func(c *gin.Context, err error) {
			got = err
			c.AbortWithStatus(http.StatusTeapot)
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.ErrorIs(t, got, auth.ErrInvalidToken)
}
