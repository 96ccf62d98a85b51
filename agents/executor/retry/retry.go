/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides exponential backoff for provider API calls that
// fail transiently: rate limits, quota exhaustion, and overloaded backends.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// RetryConfig bounds how persistently an operation is retried.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first failure.
	// Zero disables retrying entirely.
	MaxRetries int
	// BaseBackoff is the delay before the first retry; each subsequent
	// retry doubles it.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubled delay.
	MaxBackoff time.Duration
	// MaxJitter is the upper bound of the random delay added to each
	// backoff so concurrent callers don't retry in lockstep.
	MaxJitter time.Duration
}

// Validate reports a configuration with negative values.
func (c RetryConfig) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return errors.New("max retries cannot be negative")
	case c.BaseBackoff < 0:
		return errors.New("base backoff cannot be negative")
	case c.MaxBackoff < 0:
		return errors.New("max backoff cannot be negative")
	case c.MaxJitter < 0:
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultRetryConfig is tuned for quota-style rate limits, which recover
// on the order of seconds rather than milliseconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  60 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// RetryWithBackoff runs fn until it succeeds, returns a non-retryable
// error, exhausts cfg.MaxRetries, or the context is cancelled. The
// isRetryable classifier decides which errors are worth waiting out;
// operation names the call in logs and the final error.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, operation string, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return result, err
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}

		delay := backoffDelay(cfg, attempt)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", delay).
			With("error", lastErr.Error()).
			Warn("Rate limit hit, retrying")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, lastErr)
}

// backoffDelay doubles the base per attempt, caps it, and adds jitter.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := min(cfg.BaseBackoff<<attempt, cfg.MaxBackoff)
	if cfg.MaxJitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(cfg.MaxJitter))); err == nil {
			delay += time.Duration(n.Int64())
		}
	}
	return delay
}
