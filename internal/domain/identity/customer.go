package identity

import (
	"strings"

	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared"
)

// AggregateTypeCustomer is the aggregate type used in customer events
const AggregateTypeCustomer = "Customer"

// Customer is the aggregate root for a registered shopper. ID is chosen by
// the customer at registration and never changes.
type Customer struct {
	shared.BaseAggregateRoot
	ID           string
	SecretHash   string
	Name         string
	Address      string
	Instrument   payment.Instrument
	Challenge    Challenge
	FailedLogins int
}

// Registration carries everything needed to open an account
type Registration struct {
	ID             string
	Secret         string
	Name           string
	Address        string
	Instrument     payment.Instrument
	ChallengeIndex int
	Answer         string
}

// NewCustomer validates a registration and creates the customer. Checks run
// in order: password policy, profile, security answer. Uniqueness of the ID
// is the repository's concern.
func NewCustomer(r Registration) (*Customer, error) {
	if err := ValidateSecret(r.Secret); err != nil {
		return nil, err
	}
	question, err := validateProfile(r)
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(r.Answer)
	if answer == "" {
		return nil, ErrMissingChallengeAnswer
	}
	if len(answer) > maxHashedLength {
		return nil, ErrInvalidProfile.WithMessage("Security answer is too long")
	}

	secretHash, err := hashValue(r.Secret)
	if err != nil {
		return nil, err
	}
	answerHash, err := hashValue(answer)
	if err != nil {
		return nil, err
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ID:                strings.TrimSpace(r.ID),
		SecretHash:        secretHash,
		Name:              strings.TrimSpace(r.Name),
		Address:           strings.TrimSpace(r.Address),
		Instrument:        r.Instrument,
		Challenge:         Challenge{Question: question, AnswerHash: answerHash},
	}
	c.AddDomainEvent(NewCustomerRegisteredEvent(c))
	return c, nil
}

func validateProfile(r Registration) (string, error) {
	if strings.TrimSpace(r.ID) == "" {
		return "", ErrInvalidProfile.WithMessage("Customer ID cannot be empty")
	}
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Address) == "" {
		return "", ErrInvalidProfile
	}
	if err := r.Instrument.Validate(); err != nil {
		return "", ErrInvalidProfile
	}
	question, ok := ChallengeQuestion(r.ChallengeIndex)
	if !ok {
		return "", ErrInvalidProfile.WithMessage("Unknown security question")
	}
	return question, nil
}

// VerifySecret compares a password against the stored hash
func (c *Customer) VerifySecret(secret string) bool {
	return matchesHash(c.SecretHash, secret)
}

// IsLocked returns true once the failed-login counter reached the threshold
func (c *Customer) IsLocked() bool {
	return IsLockedOut(c.FailedLogins)
}

// RemainingAttempts returns the failures left before lockout
func (c *Customer) RemainingAttempts() int {
	return RemainingAttempts(c.FailedLogins)
}

// RecordLoginFailure increments the counter and returns true when this
// failure locked the account
func (c *Customer) RecordLoginFailure() bool {
	wasLocked := c.IsLocked()
	c.FailedLogins = NextFailedLogins(c.FailedLogins, LoginFailed)
	c.IncrementVersion()

	if !wasLocked && c.IsLocked() {
		c.AddDomainEvent(NewCustomerLockedEvent(c))
		return true
	}
	return false
}

// RecordLoginSuccess resets the failed-login counter
func (c *Customer) RecordLoginSuccess() {
	if c.FailedLogins == 0 {
		return
	}
	c.FailedLogins = NextFailedLogins(c.FailedLogins, LoginSucceeded)
	c.IncrementVersion()
}

// ReplaceInstrument stores a new card, typically the replacement that paid for an order
func (c *Customer) ReplaceInstrument(instr payment.Instrument) error {
	if err := instr.Validate(); err != nil {
		return err
	}
	c.Instrument = instr
	c.IncrementVersion()
	return nil
}

// Handle returns the authenticated view of the customer
func (c *Customer) Handle() Handle {
	return Handle{
		CustomerID:        c.ID,
		DisplayName:       c.Name,
		ChallengeQuestion: c.Challenge.Question,
		answerHash:        c.Challenge.AnswerHash,
	}
}

// Handle is returned by a successful password check. It carries what the
// second factor needs without exposing the stored answer.
type Handle struct {
	CustomerID        string
	DisplayName       string
	ChallengeQuestion string
	answerHash        string
}

// VerifyChallenge compares a security answer, ignoring surrounding spaces.
// It has no effect on the failed-login counter.
func (h Handle) VerifyChallenge(answer string) bool {
	return matchesHash(h.answerHash, strings.TrimSpace(answer))
}
