package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carcat/internal/errors"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "stats", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("temporary")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "stats", func() error {
		calls++
		return errors.WrapHTTPStatus(401, "http://localhost:8080")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryAnnotatesCatalogError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), "stats", func() error {
		calls++
		return &errors.CatalogError{
			Type:       errors.ErrorTypeNetwork,
			Message:    "Could not connect to remote source",
			Retryable:  true,
			RetryAfter: time.Millisecond,
		}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestWithRetryWrapsPlainError(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WithRetry(context.Background(), fastConfig(), "cleanup", func() error { return cause })

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cleanup failed after 3 attempts")
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
	err := WithRetry(ctx, cfg, "stats", func() error { return fmt.Errorf("down") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffCapped(t *testing.T) {
	cfg := &Config{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, backoff(cfg, 1))
	assert.Equal(t, 2*time.Second, backoff(cfg, 2))
	assert.Equal(t, 3*time.Second, backoff(cfg, 3))
}
