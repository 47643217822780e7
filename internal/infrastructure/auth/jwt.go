package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cos/backend/internal/infrastructure/config"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	// TokenTypeChallenge is issued after the secret is verified and only
	// allows answering the security question
	TokenTypeChallenge TokenType = "challenge"
	// TokenTypeAccess is issued once the challenge is answered
	TokenTypeAccess TokenType = "access"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingCustomer  = errors.New("missing customer in claims")
)

// Claims are the JWT claims; Subject holds the customer id
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// CustomerID returns the customer the token was issued to
func (c *Claims) CustomerID() string {
	return c.Subject
}

// IssuedToken is a signed token with its expiry
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTService issues and validates HS256 tokens
type JWTService struct {
	secret              []byte
	accessExpiration    time.Duration
	challengeExpiration time.Duration
	issuer              string
	now                 func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:              []byte(cfg.Secret),
		accessExpiration:    cfg.AccessTokenExpiration,
		challengeExpiration: cfg.ChallengeTokenExpiration,
		issuer:              cfg.Issuer,
		now:                 time.Now,
	}
}

// IssueChallengeToken issues the short-lived token used between the secret
// check and the security question
func (s *JWTService) IssueChallengeToken(customerID string) (*IssuedToken, error) {
	return s.issue(customerID, TokenTypeChallenge, s.challengeExpiration)
}

// IssueAccessToken issues the token used for authenticated requests
func (s *JWTService) IssueAccessToken(customerID string) (*IssuedToken, error) {
	return s.issue(customerID, TokenTypeAccess, s.accessExpiration)
}

func (s *JWTService) issue(customerID string, tokenType TokenType, ttl time.Duration) (*IssuedToken, error) {
	if customerID == "" {
		return nil, ErrMissingCustomer
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   customerID,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TokenType: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

// ValidateChallengeToken validates a challenge token and returns its claims
func (s *JWTService) ValidateChallengeToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeChallenge)
}

func (s *JWTService) validate(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidTokenType
	}
	if claims.Subject == "" {
		return nil, ErrMissingCustomer
	}
	return claims, nil
}

// AccessTokenExpiration returns the access token lifetime
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.accessExpiration
}
