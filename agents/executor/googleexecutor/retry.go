/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"strings"
)

// Gemini errors don't expose a typed status code at this layer, so we
// match on the substrings the API is known to emit for transient
// conditions.
var transientGeminiMarkers = []string{
	"Resource exhausted",
	"RESOURCE_EXHAUSTED",
	"429",
	"rate limit",
	"Overloaded",
	"503",
	"quota exceeded",
	"Internal error",
	"server error",
}

// isRetryableVertexError reports whether err looks like a rate limit,
// quota, or transient server failure worth retrying.
func isRetryableVertexError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range transientGeminiMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
