// Package retry runs flaky calls a bounded number of times.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool          // grow the delay with each attempt
	MaxDelay    time.Duration // cap on the grown delay, 0 = uncapped
}

// WithRetry runs fn until it succeeds or the attempts run out, sleeping
// between attempts. fn receives the 1-based attempt number so callers can
// log it or vary behavior per try. The context cancels the wait, not a
// running fn.
func WithRetry(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(nextDelay(cfg, attempt)):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// nextDelay is the wait after the given attempt number failed.
func nextDelay(cfg Config, attempt int) time.Duration {
	d := cfg.Delay
	if cfg.Backoff {
		d = time.Duration(attempt) * cfg.Delay
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}
