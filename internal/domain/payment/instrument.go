package payment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

// DefaultBalance is the spending limit given to a newly entered card when
// none is supplied
var DefaultBalance = valueobject.MustMoney("1000.00")

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// Expiry is a card expiry at month granularity
type Expiry struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ParseExpiry parses "MM/YY" or "MM/YYYY"
func ParseExpiry(s string) (Expiry, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Expiry{}, fmt.Errorf("expiry %q must be formatted as MM/YY", s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 || len(parts[0]) != 2 {
		return Expiry{}, fmt.Errorf("expiry %q has an invalid month", s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || (len(parts[1]) != 2 && len(parts[1]) != 4) {
		return Expiry{}, fmt.Errorf("expiry %q has an invalid year", s)
	}
	if len(parts[1]) == 2 {
		year += 2000
	}
	return Expiry{Year: year, Month: time.Month(month)}, nil
}

// IsZero returns true for an unset expiry
func (e Expiry) IsZero() bool {
	return e.Year == 0 && e.Month == 0
}

// Before reports whether the expiry month is strictly before the month of t
func (e Expiry) Before(t time.Time) bool {
	if e.Year != t.Year() {
		return e.Year < t.Year()
	}
	return e.Month < t.Month()
}

// String formats the expiry as MM/YY
func (e Expiry) String() string {
	return fmt.Sprintf("%02d/%02d", int(e.Month), e.Year%100)
}

// Instrument is a stored credit card with a simulated balance
type Instrument struct {
	Number  string            `json:"-"`
	Holder  string            `json:"holder"`
	Expiry  Expiry            `json:"expiry"`
	CVV     string            `json:"-"`
	Balance valueobject.Money `json:"balance"`
}

// NewInstrument builds an instrument. It does not validate, so that an
// instrument with a malformed number can still reach the authorizer and be
// declined there.
func NewInstrument(number, holder string, expiry Expiry, cvv string, balance valueobject.Money) Instrument {
	return Instrument{
		Number:  strings.TrimSpace(number),
		Holder:  strings.TrimSpace(holder),
		Expiry:  expiry,
		CVV:     strings.TrimSpace(cvv),
		Balance: balance,
	}
}

// HasValidNumber returns true when the number is exactly sixteen digits
func (i Instrument) HasValidNumber() bool {
	return cardNumberPattern.MatchString(i.Number)
}

// HasValidCVV returns true when the verification code is absent or three to
// four digits
func (i Instrument) HasValidCVV() bool {
	return i.CVV == "" || cvvPattern.MatchString(i.CVV)
}

// Validate checks the instrument's structure
func (i Instrument) Validate() error {
	if !i.HasValidNumber() {
		return ErrInvalidInstrument
	}
	if !i.HasValidCVV() {
		return shared.NewDomainError(ErrInvalidInstrument.Code, "Card verification code must be 3 or 4 digits")
	}
	if i.Balance.IsNegative() {
		return shared.NewDomainError(ErrInvalidInstrument.Code, "Card balance cannot be negative")
	}
	return nil
}

// IsExpired reports whether the card expired before the current month. An
// unset expiry counts as expired.
func (i Instrument) IsExpired(now time.Time) bool {
	if i.Expiry.IsZero() {
		return true
	}
	return i.Expiry.Before(now)
}

// Last4 returns the last four digits of the card number
func (i Instrument) Last4() string {
	if len(i.Number) < 4 {
		return i.Number
	}
	return i.Number[len(i.Number)-4:]
}

// Masked returns the card number with everything but the last four digits hidden
func (i Instrument) Masked() string {
	return "**** **** **** " + i.Last4()
}

func (i *Instrument) debit(amount valueobject.Money) {
	i.Balance = i.Balance.Subtract(amount)
}
