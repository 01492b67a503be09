package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"carcat/internal/errors"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns retry defaults for calls against a running carcat server
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// QuickConfig returns faster retry settings for interactive operations
func QuickConfig() *Config {
	return &Config{
		MaxAttempts: 2,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// WithRetry executes fn with exponential backoff. Only retryable
// *errors.CatalogError values and plain errors are retried; a
// non-retryable CatalogError is returned immediately.
func WithRetry(ctx context.Context, config *Config, operation string, fn func() error) error {
	if config == nil {
		config = DefaultConfig()
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		delay := backoff(config, attempt)

		var catErr *errors.CatalogError
		if stderrors.As(err, &catErr) {
			if !catErr.IsRetryable() {
				return catErr
			}
			if retryAfter := catErr.GetRetryAfter(); retryAfter > 0 && retryAfter < config.MaxDelay {
				delay = retryAfter
			}
		}

		if attempt >= config.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var catErr *errors.CatalogError
	if stderrors.As(lastErr, &catErr) {
		catErr.Message = fmt.Sprintf("%s (failed after %d attempts)", catErr.Message, config.MaxAttempts)
		return catErr
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, config.MaxAttempts, lastErr)
}

// WithQuickRetry is a convenience function for interactive operations that need fast retry
func WithQuickRetry(ctx context.Context, operation string, fn func() error) error {
	return WithRetry(ctx, QuickConfig(), operation, fn)
}

// WithDefaultRetry is a convenience function using default retry settings
func WithDefaultRetry(ctx context.Context, operation string, fn func() error) error {
	return WithRetry(ctx, DefaultConfig(), operation, fn)
}

func backoff(config *Config, attempt int) time.Duration {
	delay := time.Duration(float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}
