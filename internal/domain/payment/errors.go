package payment

import (
	"errors"

	"github.com/cos/backend/internal/domain/shared"
)

// DeclineReason says why an authorization was refused
type DeclineReason string

const (
	ReasonInvalidInstrument DeclineReason = "INVALID_INSTRUMENT"
	ReasonExpired           DeclineReason = "INSTRUMENT_EXPIRED"
	ReasonInsufficientFunds DeclineReason = "INSUFFICIENT_FUNDS"
)

// Decline errors, one per reason; the code equals the reason
var (
	ErrInvalidInstrument = shared.NewDomainError(string(ReasonInvalidInstrument), "Card number must be 16 digits")
	ErrExpired           = shared.NewDomainError(string(ReasonExpired), "Card has expired")
	ErrInsufficientFunds = shared.NewDomainError(string(ReasonInsufficientFunds), "Insufficient funds")
)

// ReasonOf extracts the decline reason from an authorization error
func ReasonOf(err error) (DeclineReason, bool) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return "", false
	}
	switch r := DeclineReason(de.Code); r {
	case ReasonInvalidInstrument, ReasonExpired, ReasonInsufficientFunds:
		return r, true
	}
	return "", false
}
