package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/shared/valueobject"
)

func validRegistration() Registration {
	return Registration{
		ID:             "alice",
		Secret:         "Abc123!",
		Name:           "Alice",
		Address:        "1 Main St",
		Instrument:     payment.NewInstrument("1234567812345678", "Alice", payment.Expiry{Year: 2030, Month: time.June}, "123", payment.DefaultBalance),
		ChallengeIndex: 1,
		Answer:         "blue",
	}
}

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer with hashed credentials", func(t *testing.T) {
		c, err := NewCustomer(validRegistration())
		require.NoError(t, err)
		assert.Equal(t, "alice", c.ID)
		assert.Equal(t, 0, c.FailedLogins)
		assert.NotEqual(t, "Abc123!", c.SecretHash)
		assert.NotEqual(t, "blue", c.Challenge.AnswerHash)
		assert.Equal(t, "What is your favorite color?", c.Challenge.Question)
		assert.True(t, c.VerifySecret("Abc123!"))
		assert.False(t, c.VerifySecret("abc123!"))

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*CustomerRegisteredEvent)
		assert.True(t, ok)
	})

	tests := []struct {
		name   string
		mutate func(r *Registration)
		want   error
	}{
		{"weak secret", func(r *Registration) { r.Secret = "abc" }, ErrWeakSecret},
		{"weak secret reported before bad profile", func(r *Registration) { r.Secret = "abc"; r.Name = "" }, ErrWeakSecret},
		{"empty name", func(r *Registration) { r.Name = "  " }, ErrInvalidProfile},
		{"empty address", func(r *Registration) { r.Address = "" }, ErrInvalidProfile},
		{"empty id", func(r *Registration) { r.ID = "" }, ErrInvalidProfile},
		{"invalid card", func(r *Registration) { r.Instrument.Number = "1234" }, ErrInvalidProfile},
		{"unknown question", func(r *Registration) { r.ChallengeIndex = 9 }, ErrInvalidProfile},
		{"bad profile reported before missing answer", func(r *Registration) { r.Address = ""; r.Answer = "" }, ErrInvalidProfile},
		{"missing answer", func(r *Registration) { r.Answer = "   " }, ErrMissingChallengeAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(&r)
			c, err := NewCustomer(r)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCustomer_Lockout(t *testing.T) {
	c, err := NewCustomer(validRegistration())
	require.NoError(t, err)
	c.ClearDomainEvents()

	assert.False(t, c.RecordLoginFailure())
	assert.Equal(t, 2, c.RemainingAttempts())
	assert.False(t, c.RecordLoginFailure())
	assert.False(t, c.IsLocked())
	assert.True(t, c.RecordLoginFailure())
	assert.True(t, c.IsLocked())
	assert.Equal(t, 0, c.RemainingAttempts())

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	locked, ok := events[0].(*CustomerLockedEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", locked.AggregateID())

	// further failures do not lock again
	assert.False(t, c.RecordLoginFailure())
	assert.Len(t, c.GetDomainEvents(), 1)
}

func TestCustomer_SuccessResetsCounter(t *testing.T) {
	c, err := NewCustomer(validRegistration())
	require.NoError(t, err)

	c.RecordLoginFailure()
	c.RecordLoginFailure()
	version := c.GetVersion()
	c.RecordLoginSuccess()
	assert.Equal(t, 0, c.FailedLogins)
	assert.Greater(t, c.GetVersion(), version)

	c.RecordLoginFailure()
	assert.False(t, c.IsLocked())
}

func TestCustomer_ReplaceInstrument(t *testing.T) {
	c, err := NewCustomer(validRegistration())
	require.NoError(t, err)

	replacement := payment.NewInstrument("8765432187654321", "Alice", payment.Expiry{Year: 2031, Month: 1}, "999", valueobject.MustMoney("500"))
	require.NoError(t, c.ReplaceInstrument(replacement))
	assert.Equal(t, "4321", c.Instrument.Last4())

	bad := payment.NewInstrument("1", "Alice", payment.Expiry{Year: 2031, Month: 1}, "999", valueobject.MustMoney("500"))
	assert.Error(t, c.ReplaceInstrument(bad))
	assert.Equal(t, "4321", c.Instrument.Last4())
}

func TestHandle_VerifyChallenge(t *testing.T) {
	c, err := NewCustomer(validRegistration())
	require.NoError(t, err)
	h := c.Handle()

	assert.Equal(t, "alice", h.CustomerID)
	assert.Equal(t, "Alice", h.DisplayName)
	assert.True(t, h.VerifyChallenge("blue"))
	assert.True(t, h.VerifyChallenge(" blue "))
	assert.False(t, h.VerifyChallenge("Blue"))
	assert.False(t, h.VerifyChallenge(""))

	// the challenge never touches the counter
	assert.Equal(t, 0, c.FailedLogins)
	assert.False(t, Handle{}.VerifyChallenge("blue"))
}
