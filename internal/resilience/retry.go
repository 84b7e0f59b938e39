package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with bounded exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default: 3.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry and the lower bound
	// of every wait. Default: 2s.
	InitialBackoff time.Duration

	// MaxBackoff caps every wait. Default: 10s.
	MaxBackoff time.Duration

	// Multiplier scales the wait after each attempt. Default: 2.0.
	Multiplier float64

	// ShouldRetry decides whether an error is worth another attempt.
	// Default: Retryable.
	ShouldRetry func(err error) bool

	// OnRetry runs before each retry wait.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig mirrors the remote classifier defaults: three attempts,
// waits between 2s and 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
	}
}

// DoVal calls fn until it succeeds, the error is not retryable, attempts run
// out or ctx is done. The last error is returned.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !cfg.ShouldRetry(err) {
			return zero, lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// Backoff returns the wait after the given zero-based attempt, clamped to
// [InitialBackoff, MaxBackoff].
func (c RetryConfig) Backoff(attempt int) time.Duration {
	c = c.withDefaults()
	delay := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(c.MaxBackoff))
	delay = math.Max(delay, float64(c.InitialBackoff))
	return time.Duration(delay)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = Retryable
	}
	return c
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(provider, entity string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying remote classification",
			zap.String("provider", provider),
			zap.String("company", entity),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
