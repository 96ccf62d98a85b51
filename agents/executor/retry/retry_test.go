/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainguard.dev/repolens/agents/executor/retry"
)

func fastConfig() retry.RetryConfig {
	return retry.RetryConfig{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func retryAll(err error) bool { return err != nil }

func TestRetryWithBackoffFirstTrySucceeds(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := retry.RetryWithBackoff(context.Background(), fastConfig(), "embed_batch", retryAll, func() (int, error) {
		calls++
		return 7, nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if got != 7 {
		t.Errorf("RetryWithBackoff() = %d, want 7", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoffRecovers(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := retry.RetryWithBackoff(context.Background(), fastConfig(), "embed_batch", retryAll, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("429 too many requests")
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("RetryWithBackoff() = %q, want %q", got, "recovered")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	t.Parallel()
	limited := errors.New("429 too many requests")
	calls := 0
	_, err := retry.RetryWithBackoff(context.Background(), fastConfig(), "embed_batch", retryAll, func() (string, error) {
		calls++
		return "", limited
	})
	if err == nil {
		t.Fatal("RetryWithBackoff() error = nil, want error")
	}
	if !errors.Is(err, limited) {
		t.Errorf("RetryWithBackoff() error = %v, want wrapping %v", err, limited)
	}
	if !strings.Contains(err.Error(), "embed_batch failed after 3 retries") {
		t.Errorf("RetryWithBackoff() error = %v, want operation context", err)
	}
	// One initial attempt plus MaxRetries retries.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	t.Parallel()
	denied := errors.New("401 unauthorized")
	calls := 0
	_, err := retry.RetryWithBackoff(context.Background(), fastConfig(), "embed_batch",
		func(error) bool { return false },
		func() (string, error) {
			calls++
			return "", denied
		})
	if !errors.Is(err, denied) {
		t.Errorf("RetryWithBackoff() error = %v, want %v unwrapped", err, denied)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	_, err := retry.RetryWithBackoff(ctx, fastConfig(), "embed_batch", retryAll, func() (string, error) {
		cancel() // interrupts the backoff sleep before the next attempt
		return "", errors.New("429 too many requests")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithBackoff() error = %v, want context.Canceled", err)
	}
}

func TestRetryWithBackoffZeroRetries(t *testing.T) {
	t.Parallel()
	cfg := fastConfig()
	cfg.MaxRetries = 0
	calls := 0
	_, err := retry.RetryWithBackoff(context.Background(), cfg, "embed_batch", retryAll, func() (string, error) {
		calls++
		return "", errors.New("429 too many requests")
	})
	if err == nil {
		t.Fatal("RetryWithBackoff() error = nil, want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := retry.DefaultRetryConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v for default config", err)
	}
	bad := retry.RetryConfig{MaxRetries: -1}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() error = nil for negative retries")
	}
}
