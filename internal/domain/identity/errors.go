package identity

import "github.com/cos/backend/internal/domain/shared"

// Account registration errors, checked in this order
var (
	ErrDuplicateID            = shared.NewDomainError("DUPLICATE_ID", "Customer ID is already taken")
	ErrWeakSecret             = shared.NewDomainError("WEAK_SECRET", "Password must be at least 6 characters long and contain a digit, an uppercase letter and one of !@#$%&*")
	ErrInvalidProfile         = shared.NewDomainError("INVALID_PROFILE", "Name, address and a valid credit card are required")
	ErrMissingChallengeAnswer = shared.NewDomainError("MISSING_CHALLENGE_ANSWER", "Security answer cannot be empty")
)

// Authentication errors
var (
	ErrCustomerNotFound = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrAccountLocked    = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to too many failed login attempts")
	ErrBadCredential    = shared.NewDomainError("BAD_CREDENTIAL", "Incorrect password")
	ErrChallengeFailed  = shared.NewDomainError("CHALLENGE_FAILED", "Security answer is incorrect")
)

// BadCredential returns ErrBadCredential carrying the remaining attempts
func BadCredential(remaining int) *shared.DomainError {
	return ErrBadCredential.WithDetail("remaining_attempts", remaining)
}
