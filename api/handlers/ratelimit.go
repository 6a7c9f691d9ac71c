package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimitError is returned when rate limit is exceeded.
type RateLimitError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

type RateLimiterConfig struct {
	// Rate is the sustained requests per second allowed per client.
	Rate  rate.Limit
	Burst int
	// IdleTTL is how long an idle client's limiter is kept.
	IdleTTL time.Duration
	Clock   clockwork.Clock
}

func (cfg *RateLimiterConfig) Validate() {
	if cfg.Rate <= 0 {
		cfg.Rate = rate.Every(time.Minute / 600)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 50
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
}

// RateLimiter provides per-client rate limiting of reward queries.
type RateLimiter struct {
	cfg      RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*rateLimiterEntry
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	cfg.Validate()
	return &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*rateLimiterEntry),
	}
}

// Allow reports whether a request from client may proceed and, if not, how
// long until it could.
func (rl *RateLimiter) Allow(client string) (allowed bool, retryAfter time.Duration) {
	now := rl.cfg.Clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[client]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)}
		rl.limiters[client] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Run evicts idle clients until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := rl.cfg.Clock.NewTicker(rl.cfg.IdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() int {
	cutoff := rl.cfg.Clock.Now().Add(-rl.cfg.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	evicted := 0
	for client, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, client)
			evicted++
		}
	}
	return evicted
}

func (rl *RateLimiter) clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimitMiddleware rejects requests over the client's limit with 429.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := limiter.Allow(ClientIP(r))
			if !allowed {
				retrySeconds := max(int(retryAfter.Seconds()), 1)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))
				w.WriteHeader(http.StatusTooManyRequests)

				_ = json.NewEncoder(w).Encode(RateLimitError{
					Error:      "rate_limit_exceeded",
					Message:    "Too many requests. Please slow down.",
					RetryAfter: retrySeconds,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, or the remote address host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
