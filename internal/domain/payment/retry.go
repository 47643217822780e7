package payment

// DefaultMaxAttempts is the number of authorization attempts a checkout gets
const DefaultMaxAttempts = 3

// RetryDecision is the outcome of a declined attempt
type RetryDecision struct {
	// Retry is true when the caller may offer a replacement instrument
	Retry bool
	// AttemptsLeft counts the attempts still available after this one
	AttemptsLeft int
}

// DecideRetry decides what happens after the attempt-th (1-based) declined
// authorization. Every decline reason is retryable while attempts remain.
func DecideRetry(attempt, maxAttempts int) RetryDecision {
	left := maxAttempts - attempt
	if left < 0 {
		left = 0
	}
	return RetryDecision{Retry: left > 0, AttemptsLeft: left}
}
