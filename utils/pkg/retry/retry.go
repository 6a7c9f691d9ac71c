package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig is used when connecting to the backing stores at startup and for
// read-only transactions.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseBackoff: 250 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or runs out of attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue is Do for functions that produce a value.
func DoValue[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff(cfg.BaseBackoff, cfg.MaxBackoff, attempt-1)):
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// IsRetryable reports whether err is a transient connectivity failure. Errors are
// classified by type only, so domain errors that merely mention a network word
// are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exception; 57P03 is cannot_connect_now (server starting up).
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P03"
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// backoff is base * 2^attempt capped at max, scaled by a jitter factor in [0.5, 1.0).
func backoff(base, maxBackoff time.Duration, attempt int) time.Duration {
	d := min(base*time.Duration(1<<uint(attempt)), maxBackoff)
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}
