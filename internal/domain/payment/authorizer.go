// Package payment simulates a card network: it checks a stored instrument
// and debits its balance. The retry policy is deliberately kept out of the
// authorizer, see DecideRetry.
package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// AuthToken is the opaque reference issued for an approved charge
type AuthToken string

// Authorizer approves or declines charges against an instrument
type Authorizer struct {
	now      func() time.Time
	newToken func() AuthToken
}

// AuthorizerOption configures an Authorizer
type AuthorizerOption func(*Authorizer)

// WithClock overrides the clock used for expiry checks
func WithClock(now func() time.Time) AuthorizerOption {
	return func(a *Authorizer) {
		a.now = now
	}
}

// WithTokenGenerator overrides how authorization tokens are issued
func WithTokenGenerator(gen func() AuthToken) AuthorizerOption {
	return func(a *Authorizer) {
		a.newToken = gen
	}
}

// NewAuthorizer creates an authorizer using the wall clock and random tokens
func NewAuthorizer(opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		now:      time.Now,
		newToken: randomToken,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize checks, in order, the card structure (number and verification
// code), the expiry and the balance.
// On approval the amount is debited from instr and a token is returned; a
// declined call leaves instr untouched. Each approved call debits again.
func (a *Authorizer) Authorize(instr *Instrument, amount valueobject.Money) (AuthToken, error) {
	if instr == nil || !instr.HasValidNumber() || !instr.HasValidCVV() {
		return "", ErrInvalidInstrument
	}
	if amount.IsNegative() {
		return "", shared.ErrInvalidInput.WithMessage("Charge amount cannot be negative")
	}
	if instr.IsExpired(a.now()) {
		return "", ErrExpired
	}
	if instr.Balance.LessThan(amount) {
		return "", ErrInsufficientFunds
	}
	instr.debit(amount)
	return a.newToken(), nil
}

func randomToken() AuthToken {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return AuthToken("AUTH-" + strings.ToUpper(id[:12]))
}
