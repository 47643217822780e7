package identity

// LockoutThreshold is the number of consecutive failed logins that locks an account
const LockoutThreshold = 3

// LoginOutcome is the result of a credential check
type LoginOutcome int

const (
	LoginFailed LoginOutcome = iota
	LoginSucceeded
)

// NextFailedLogins is the failed-login counter transition. A success resets
// the counter; a failure increments it, saturating at LockoutThreshold.
func NextFailedLogins(counter int, outcome LoginOutcome) int {
	if outcome == LoginSucceeded {
		return 0
	}
	if counter >= LockoutThreshold {
		return LockoutThreshold
	}
	return counter + 1
}

// IsLockedOut returns true once the counter has reached the threshold
func IsLockedOut(counter int) bool {
	return counter >= LockoutThreshold
}

// RemainingAttempts returns how many failures are left before lockout
func RemainingAttempts(counter int) int {
	if counter >= LockoutThreshold {
		return 0
	}
	return LockoutThreshold - counter
}
