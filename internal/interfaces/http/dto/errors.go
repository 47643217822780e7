package dto

import "net/http"

// Transport-level error codes. Domain errors keep their own codes
// (DUPLICATE_ID, BAD_CREDENTIAL, PAYMENT_FAILED, ...).
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// shared
	"INVALID_INPUT":        http.StatusBadRequest,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// registration
	"DUPLICATE_ID":             http.StatusConflict,
	"WEAK_SECRET":              http.StatusBadRequest,
	"INVALID_PROFILE":          http.StatusBadRequest,
	"MISSING_CHALLENGE_ANSWER": http.StatusBadRequest,

	// login
	"CUSTOMER_NOT_FOUND": http.StatusNotFound,
	"ACCOUNT_LOCKED":     http.StatusLocked,
	"BAD_CREDENTIAL":     http.StatusUnauthorized,
	"CHALLENGE_FAILED":   http.StatusUnauthorized,

	// catalog and cart
	"PRODUCT_NOT_FOUND":       http.StatusNotFound,
	"INVALID_QUANTITY":        http.StatusBadRequest,
	"QUANTITY_LIMIT_EXCEEDED": http.StatusBadRequest,
	"ITEM_NOT_IN_CART":        http.StatusNotFound,

	// checkout
	"NOT_AUTHENTICATED":  http.StatusUnauthorized,
	"EMPTY_CART":         http.StatusUnprocessableEntity,
	"INVALID_DELIVERY":   http.StatusBadRequest,
	"PAYMENT_FAILED":     http.StatusPaymentRequired,
	"DUPLICATE_REQUEST":  http.StatusConflict,
	"INVALID_INSTRUMENT": http.StatusBadRequest,
	"INSTRUMENT_EXPIRED": http.StatusBadRequest,
	"INSUFFICIENT_FUNDS": http.StatusPaymentRequired,
	"DUPLICATE_ORDER":    http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
