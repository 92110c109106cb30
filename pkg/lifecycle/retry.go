package lifecycle

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// retryConfig holds the backoff settings for install-time fetches.
type retryConfig struct {
	// maxAttempts is the maximum number of attempts, including the first.
	maxAttempts int

	// initialBackoff is the backoff before the first retry.
	initialBackoff time.Duration

	// maxBackoff caps the exponential backoff.
	maxBackoff time.Duration
}

// defaultRetryConfig returns the backoff settings used during install.
// Transient origin hiccups should not fail a whole deploy, but a path that
// keeps failing still aborts the install.
func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:    3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
}

// retryTransient executes fn with exponential backoff and jitter.
// fn reports via its second return value whether the failure is transient
// and worth retrying; permanent failures return immediately.
func retryTransient(ctx context.Context, cfg retryConfig, fn func() (error, bool)) error {
	var lastErr error
	backoff := cfg.initialBackoff

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		err, transient := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !transient || attempt >= cfg.maxAttempts {
			break
		}

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(jitter):
		}

		backoff *= 2
		if backoff > cfg.maxBackoff {
			backoff = cfg.maxBackoff
		}
	}

	return lastErr
}
