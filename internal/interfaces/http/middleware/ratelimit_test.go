package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit then blocks", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
		assert.Equal(t, 0, limiter.Remaining("client"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("client"))
		assert.False(t, limiter.Allow("client"))

		*now = now.Add(time.Minute)
		assert.Equal(t, 1, limiter.Remaining("client"))
		assert.True(t, limiter.Allow("client"))
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 10, time.Minute)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 10, allowed)
	})
}

func TestRateLimiter_StopEndsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewRateLimiter(1, time.Millisecond)
	limiter.Stop()
	limiter.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, last.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}
