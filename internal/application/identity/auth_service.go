package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/event"
	"github.com/cos/backend/internal/infrastructure/telemetry"
)

// ErrInvalidChallengeToken is returned when the challenge token is missing,
// expired or malformed
var ErrInvalidChallengeToken = shared.NewDomainError("INVALID_TOKEN", "Challenge token is invalid or expired")

// AuthService runs the two-factor login and owns the session set. Failed
// logins for one customer are serialized through the key locker, so
// concurrent bad passwords cannot lose counter increments.
type AuthService struct {
	customers identity.CustomerRepository
	sessions  identity.SessionRegistry
	locker    shared.KeyLocker
	publisher shared.EventPublisher
	tokens    *auth.JWTService
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	customers identity.CustomerRepository,
	sessions identity.SessionRegistry,
	locker shared.KeyLocker,
	publisher shared.EventPublisher,
	tokens *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		customers: customers,
		sessions:  sessions,
		locker:    locker,
		publisher: publisher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Authenticate checks a password. A locked account is refused whatever the
// password. A mismatch increments the failed-login counter and returns
// BAD_CREDENTIAL with the remaining attempts; a match resets the counter.
func (s *AuthService) Authenticate(ctx context.Context, customerID, secret string) (identity.Handle, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "authenticate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID)

	unlock := s.locker.Lock(customerID)
	defer unlock()

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, identity.ErrCustomerNotFound) {
			s.logger.Info("Login for unknown customer", zap.String("customer_id", customerID))
		}
		return identity.Handle{}, err
	}

	if customer.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("customer_id", customerID))
		return identity.Handle{}, identity.ErrAccountLocked
	}

	if !customer.VerifySecret(secret) {
		locked := customer.RecordLoginFailure()
		if err := s.customers.Update(ctx, customer); err != nil {
			return identity.Handle{}, err
		}
		if err := event.PublishPending(ctx, s.publisher, customer); err != nil {
			s.logger.Warn("Failed to publish customer events", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("customer_id", customerID),
				zap.Int("failed_logins", customer.FailedLogins))
		} else {
			s.logger.Info("Invalid password attempt",
				zap.String("customer_id", customerID),
				zap.Int("failed_logins", customer.FailedLogins))
		}
		telemetry.AddEvent(span, "login_failed", "failed_logins", customer.FailedLogins)
		return identity.Handle{}, identity.BadCredential(customer.RemainingAttempts())
	}

	if customer.FailedLogins > 0 {
		customer.RecordLoginSuccess()
		if err := s.customers.Update(ctx, customer); err != nil {
			return identity.Handle{}, err
		}
	}
	return customer.Handle(), nil
}

// VerifyChallenge compares a security answer. It never touches the
// failed-login counter.
func (s *AuthService) VerifyChallenge(handle identity.Handle, answer string) bool {
	return handle.VerifyChallenge(answer)
}

// BeginSession marks the customer as logged in
func (s *AuthService) BeginSession(ctx context.Context, customerID string) error {
	return s.sessions.Begin(ctx, customerID)
}

// EndSession logs the customer out; ending an absent session is not an error
func (s *AuthService) EndSession(ctx context.Context, customerID string) error {
	return s.sessions.End(ctx, customerID)
}

// IsSessionActive reports whether the customer is logged in
func (s *AuthService) IsSessionActive(ctx context.Context, customerID string) (bool, error) {
	return s.sessions.IsActive(ctx, customerID)
}

// Login runs the password factor and issues a short-lived challenge token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	handle, err := s.Authenticate(ctx, input.CustomerID, input.Secret)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.IssueChallengeToken(handle.CustomerID)
	if err != nil {
		s.logger.Error("Failed to issue challenge token", zap.Error(err))
		return nil, err
	}
	return &LoginResult{
		CustomerID:        handle.CustomerID,
		DisplayName:       handle.DisplayName,
		ChallengeQuestion: handle.ChallengeQuestion,
		ChallengeToken:    token.Token,
		ExpiresAt:         token.ExpiresAt,
	}, nil
}

// CompleteChallenge checks the security answer for the customer named by the
// challenge token, begins the session and issues an access token
func (s *AuthService) CompleteChallenge(ctx context.Context, input ChallengeInput) (*ChallengeResult, error) {
	claims, err := s.tokens.ValidateChallengeToken(input.ChallengeToken)
	if err != nil {
		s.logger.Info("Challenge token rejected", zap.Error(err))
		return nil, ErrInvalidChallengeToken
	}
	customerID := claims.CustomerID()

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.IsLocked() {
		return nil, identity.ErrAccountLocked
	}
	if !s.VerifyChallenge(customer.Handle(), input.Answer) {
		s.logger.Info("Security answer rejected", zap.String("customer_id", customerID))
		return nil, identity.ErrChallengeFailed
	}

	if err := s.BeginSession(ctx, customerID); err != nil {
		return nil, err
	}
	token, err := s.tokens.IssueAccessToken(customerID)
	if err != nil {
		_ = s.EndSession(ctx, customerID)
		s.logger.Error("Failed to issue access token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Customer logged in", zap.String("customer_id", customerID))
	return &ChallengeResult{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Customer:    ToCustomerInfo(customer),
	}, nil
}

// Logout ends the customer's session
func (s *AuthService) Logout(ctx context.Context, customerID string) error {
	if err := s.EndSession(ctx, customerID); err != nil {
		return err
	}
	s.logger.Info("Customer logged out", zap.String("customer_id", customerID))
	return nil
}
