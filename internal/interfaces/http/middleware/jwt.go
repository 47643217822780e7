package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/logger"
	"github.com/cos/backend/internal/interfaces/http/dto"
)

// Context keys set by the auth middleware
const (
	JWTClaimsKey  = "jwt_claims"
	CustomerIDKey = "customer_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// ErrSessionEnded is reported when a valid access token belongs to a customer
// who has since logged out
var ErrSessionEnded = errors.New("session ended")

// SessionChecker reports whether a customer is signed in
type SessionChecker interface {
	IsActive(ctx context.Context, customerID string) (bool, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Sessions, when set, rejects tokens of customers who logged out
	Sessions SessionChecker
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware requires a valid access token and an active session
func JWTAuthMiddleware(jwtService *auth.JWTService, sessions SessionChecker) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: jwtService,
		Sessions:   sessions,
	})
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}
		customerID := claims.CustomerID()

		ctx := c.Request.Context()
		if cfg.Sessions != nil {
			active, err := cfg.Sessions.IsActive(ctx, customerID)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check session", zap.String("customer_id", customerID), zap.Error(err))
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c), nil))
				return
			}
			if !active {
				handleAuthError(c, cfg, ErrSessionEnded, "Session is not active")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(CustomerIDKey, customerID)

		ctx, _ = logger.WithCustomerID(ctx, logger.FromContext(ctx), customerID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := dto.ErrCodeUnauthorized
	msg := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token type"
	case errors.Is(err, auth.ErrInvalidToken):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	case errors.Is(err, ErrSessionEnded):
		code, msg = "NOT_AUTHENTICATED", "Session has ended, log in again"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c), nil))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetCustomerID returns the authenticated customer, or "" outside the auth group
func GetCustomerID(c *gin.Context) string {
	return c.GetString(CustomerIDKey)
}
