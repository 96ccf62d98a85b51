/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// isRetryableClaudeError checks if an error is a retryable Claude API error.
// Returns true for rate limit, overloaded, and transient server errors.
func isRetryableClaudeError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}

// isContextLengthError checks if an error indicates the conversation exceeded
// the model's context window. These are 400s, not transient errors, so they
// are handled by resetting the conversation rather than retrying.
func isContextLengthError(err error) bool {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		return false
	}
	return containsContextLengthHint(apiErr.RawJSON())
}

func containsContextLengthHint(body string) bool {
	body = strings.ToLower(body)
	return strings.Contains(body, "prompt is too long") ||
		strings.Contains(body, "context length") ||
		strings.Contains(body, "too many tokens")
}
