package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/cos/backend/internal/domain/shared"
)

// SecretSpecialChars lists the characters that satisfy the special-character rule
const SecretSpecialChars = "!@#$%&*"

const (
	minSecretLength = 6
	// bcrypt ignores input beyond 72 bytes
	maxHashedLength = 72
	bcryptCost      = bcrypt.DefaultCost
)

// ValidateSecret checks the password policy: at least six characters, a
// digit, an uppercase letter and a character from SecretSpecialChars.
// Length is counted in characters; the upper bound is in bytes.
func ValidateSecret(secret string) error {
	if utf8.RuneCountInString(secret) < minSecretLength || len(secret) > maxHashedLength {
		return ErrWeakSecret
	}
	var hasDigit, hasUpper, hasSpecial bool
	for _, r := range secret {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(SecretSpecialChars, r):
			hasSpecial = true
		}
	}
	if !hasDigit || !hasUpper || !hasSpecial {
		return ErrWeakSecret
	}
	return nil
}

func hashValue(value string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("HASH_ERROR", "Failed to hash credential")
	}
	return string(hash), nil
}

func matchesHash(hash, value string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(value)) == nil
}
