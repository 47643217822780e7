package identity

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/identity"
	"github.com/cos/backend/internal/domain/shared"
	"github.com/cos/backend/internal/infrastructure/lock"
	"github.com/cos/backend/internal/infrastructure/persistence"
)

func remaining(t *testing.T, err error) int {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "BAD_CREDENTIAL", de.Code)
	return de.Details["remaining_attempts"].(int)
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	handle, err := env.auth.Authenticate(t.Context(), "alice", "Abc123!")
	require.NoError(t, err)
	assert.Equal(t, "alice", handle.CustomerID)
	assert.Equal(t, identity.ChallengeQuestions[0], handle.ChallengeQuestion)
}

func TestAuthService_Authenticate_UnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Authenticate(t.Context(), "ghost", "Abc123!")
	assert.ErrorIs(t, err, identity.ErrCustomerNotFound)
}

func TestAuthService_Authenticate_Lockout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	for want := 2; want >= 0; want-- {
		_, err := env.auth.Authenticate(t.Context(), "alice", "wrong")
		assert.Equal(t, want, remaining(t, err))
	}

	_, err := env.auth.Authenticate(t.Context(), "alice", "Abc123!")
	assert.ErrorIs(t, err, identity.ErrAccountLocked)

	stored, err := env.customers.FindByID(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.LockoutThreshold, stored.FailedLogins)
	assert.Contains(t, env.publisher.types(), identity.EventTypeCustomerLocked)
}

func TestAuthService_Authenticate_SuccessResetsCounter(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	for range 2 {
		_, err := env.auth.Authenticate(t.Context(), "alice", "wrong")
		require.Error(t, err)
	}
	_, err := env.auth.Authenticate(t.Context(), "alice", "Abc123!")
	require.NoError(t, err)

	stored, err := env.customers.FindByID(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLogins)

	_, err = env.auth.Authenticate(t.Context(), "alice", "wrong")
	assert.Equal(t, 2, remaining(t, err))
}

func TestAuthService_Authenticate_ConcurrentFailuresAreCounted(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.auth.Authenticate(t.Context(), "alice", "wrong")
		}()
	}
	wg.Wait()

	stored, err := env.customers.FindByID(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.LockoutThreshold, stored.FailedLogins)

	locked := 0
	for _, typ := range env.publisher.types() {
		if typ == identity.EventTypeCustomerLocked {
			locked++
		}
	}
	assert.Equal(t, 1, locked)
}

func TestAuthService_Authenticate_UpdateFailure(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	stored, err := env.customers.FindByID(t.Context(), "alice")
	require.NoError(t, err)

	repo := new(MockCustomerRepository)
	repo.On("FindByID", mock.Anything, "alice").Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := NewAuthService(repo, persistence.NewMemorySessionRegistry(), lock.NewStripedLocker(4), nil, env.tokens, zap.NewNop())
	_, err = svc.Authenticate(t.Context(), "alice", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAuthService_VerifyChallenge(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	handle, err := env.auth.Authenticate(t.Context(), "alice", "Abc123!")
	require.NoError(t, err)

	assert.True(t, env.auth.VerifyChallenge(handle, "Springfield"))
	assert.True(t, env.auth.VerifyChallenge(handle, "  Springfield "))
	assert.False(t, env.auth.VerifyChallenge(handle, "springfield"))
	assert.False(t, env.auth.VerifyChallenge(handle, ""))

	stored, err := env.customers.FindByID(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLogins)
}

func TestAuthService_Sessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	require.NoError(t, env.auth.BeginSession(ctx, "alice"))
	require.NoError(t, env.auth.BeginSession(ctx, "alice"))
	active, err := env.auth.IsSessionActive(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, env.auth.EndSession(ctx, "alice"))
	require.NoError(t, env.auth.EndSession(ctx, "alice"))
	active, err = env.auth.IsSessionActive(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestAuthService_LoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	login, err := env.auth.Login(t.Context(), LoginInput{CustomerID: "alice", Secret: "Abc123!"})
	require.NoError(t, err)
	assert.Equal(t, identity.ChallengeQuestions[0], login.ChallengeQuestion)
	require.NotEmpty(t, login.ChallengeToken)

	t.Run("challenge token is not an access token", func(t *testing.T) {
		_, err := env.tokens.ValidateAccessToken(login.ChallengeToken)
		assert.Error(t, err)
	})

	t.Run("wrong answer keeps session closed", func(t *testing.T) {
		_, err := env.auth.CompleteChallenge(t.Context(), ChallengeInput{ChallengeToken: login.ChallengeToken, Answer: "Shelbyville"})
		assert.ErrorIs(t, err, identity.ErrChallengeFailed)
		active, err := env.auth.IsSessionActive(t.Context(), "alice")
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.auth.CompleteChallenge(t.Context(), ChallengeInput{ChallengeToken: "nope", Answer: "Springfield"})
		assert.ErrorIs(t, err, ErrInvalidChallengeToken)
	})

	t.Run("right answer begins session", func(t *testing.T) {
		res, err := env.auth.CompleteChallenge(t.Context(), ChallengeInput{ChallengeToken: login.ChallengeToken, Answer: "Springfield"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, "alice", res.Customer.ID)

		claims, err := env.tokens.ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.CustomerID())

		active, err := env.auth.IsSessionActive(t.Context(), "alice")
		require.NoError(t, err)
		assert.True(t, active)
	})

	t.Run("logout ends session", func(t *testing.T) {
		require.NoError(t, env.auth.Logout(t.Context(), "alice"))
		active, err := env.auth.IsSessionActive(t.Context(), "alice")
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestAuthService_Login_BadSecret(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	res, err := env.auth.Login(t.Context(), LoginInput{CustomerID: "alice", Secret: "nope"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, identity.ErrBadCredential)
}
