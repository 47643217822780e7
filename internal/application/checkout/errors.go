package checkout

import (
	"errors"

	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared"
)

// Checkout errors
var (
	ErrNotAuthenticated = shared.NewDomainError("NOT_AUTHENTICATED", "Customer must be logged in to check out")
	ErrEmptyCart        = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrInvalidDelivery  = pricing.ErrInvalidDelivery
	ErrPaymentFailed    = shared.NewDomainError("PAYMENT_FAILED", "Payment could not be authorized")
	ErrDuplicateRequest = shared.NewDomainError("DUPLICATE_REQUEST", "This checkout request was already processed")
)

// ErrAbort is returned by an InstrumentProvider that declines to offer a
// replacement instrument
var ErrAbort = errors.New("checkout aborted")

// paymentFailed builds the PAYMENT_FAILED error for a checkout that gave up
// after attempts authorizations
func paymentFailed(attempts int, last payment.DeclineReason) *shared.DomainError {
	err := ErrPaymentFailed.WithDetail("attempts", attempts)
	if last != "" {
		err = err.WithDetail("last_reason", string(last))
	}
	return err
}
