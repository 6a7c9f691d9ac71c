package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestMetabonding_API_RateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst then deny per client", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClock()
		limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(5), Burst: 5, Clock: clock})

		for i := range 5 {
			allowed, _ := limiter.Allow("192.168.1.1")
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}
		allowed, retryAfter := limiter.Allow("192.168.1.1")
		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))

		allowed, _ = limiter.Allow("192.168.1.2")
		assert.True(t, allowed, "different client should be allowed")
	})

	t.Run("refills with time", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClock()
		limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(10), Burst: 2, Clock: clock})

		ok1, _ := limiter.Allow("c")
		ok2, _ := limiter.Allow("c")
		ok3, _ := limiter.Allow("c")
		require.True(t, ok1)
		require.True(t, ok2)
		require.False(t, ok3)

		clock.Advance(150 * time.Millisecond)
		allowed, _ := limiter.Allow("c")
		assert.True(t, allowed, "should be allowed after refill")
	})

	t.Run("evicts idle clients", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClock()
		limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(1), Burst: 1, IdleTTL: time.Minute, Clock: clock})

		limiter.Allow("old")
		clock.Advance(2 * time.Minute)
		limiter.Allow("new")

		require.Equal(t, 1, limiter.evictIdle())
		require.Equal(t, 1, limiter.clients())
	})

	t.Run("run stops with context", func(t *testing.T) {
		t.Parallel()
		limiter := NewRateLimiter(RateLimiterConfig{Clock: clockwork.NewFakeClock()})
		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan struct{})
		go func() {
			limiter.Run(ctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

func TestMetabonding_API_RateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(1), Burst: 1, Clock: clockwork.NewFakeClock()})
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rewards/1", nil)
	req.RemoteAddr = "192.168.1.50:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var errResp RateLimitError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "rate_limit_exceeded", errResp.Error)
	assert.Equal(t, 1, errResp.RetryAfter)
}

func TestMetabonding_API_ClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	require.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	require.Equal(t, "203.0.113.7", ClientIP(req))
}
