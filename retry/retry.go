package retry

import (
	"context"
	"time"
)

// Do executes fn with bounded retry, backing off between attempts and
// respecting context cancellation during waits. Non-transient errors
// abort immediately; otherwise the last error is returned after the
// final attempt.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !IsTransient(err) {
			return zero, err
		}

		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Delay(attempt)):
			}
		}
	}

	return zero, lastErr
}
