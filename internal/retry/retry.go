package retry

import (
	"context"
	"fmt"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // Linear backoff: attempt * Delay
	// ShouldRetry reports whether err is worth another attempt.
	// A nil ShouldRetry retries every error.
	ShouldRetry func(err error) bool
}

func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if config.ShouldRetry != nil && !config.ShouldRetry(err) {
				return err
			}

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.Delay
			if config.Backoff {
				delay = time.Duration(attempt) * config.Delay
			}

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (last error: %w)", ctx.Err(), lastErr)
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
