package identity

import (
	"time"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// RegisterInput contains everything needed to open an account
type RegisterInput struct {
	ID              string
	Secret          string
	Name            string
	Address         string
	CardNumber      string
	CardHolder      string
	CardExpiry      payment.Expiry
	CardCVV         string
	CardBalance     *valueobject.Money // nil means payment.DefaultBalance
	ChallengeIndex  int
	ChallengeAnswer string
}

// Instrument builds the payment instrument described by the input
func (in RegisterInput) Instrument() payment.Instrument {
	balance := payment.DefaultBalance
	if in.CardBalance != nil {
		balance = *in.CardBalance
	}
	return payment.NewInstrument(in.CardNumber, in.CardHolder, in.CardExpiry, in.CardCVV, balance)
}

// CustomerInfo is the public view of a customer
type CustomerInfo struct {
	ID                string
	Name              string
	Address           string
	CardMasked        string
	CardExpiry        string
	CardBalance       valueobject.Money
	ChallengeQuestion string
}

// ToCustomerInfo converts a domain customer, never exposing the card number
// or any hash
func ToCustomerInfo(c *identity.Customer) CustomerInfo {
	return CustomerInfo{
		ID:                c.ID,
		Name:              c.Name,
		Address:           c.Address,
		CardMasked:        c.Instrument.Masked(),
		CardExpiry:        c.Instrument.Expiry.String(),
		CardBalance:       c.Instrument.Balance,
		ChallengeQuestion: c.Challenge.Question,
	}
}

// LoginInput contains the first authentication factor
type LoginInput struct {
	CustomerID string
	Secret     string
}

// LoginResult is returned once the password matched. The caller answers the
// challenge question with the challenge token to obtain an access token.
type LoginResult struct {
	CustomerID        string
	DisplayName       string
	ChallengeQuestion string
	ChallengeToken    string
	ExpiresAt         time.Time
}

// ChallengeInput contains the second authentication factor
type ChallengeInput struct {
	ChallengeToken string
	Answer         string
}

// ChallengeResult carries the access token of a newly begun session
type ChallengeResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	Customer    CustomerInfo
}
