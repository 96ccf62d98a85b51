/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package result extracts and parses JSON from AI model responses.

Models frequently wrap JSON answers in markdown code fences or surround them
with prose. ExtractJSON pulls the JSON content out of a ```json block (or a
bare ``` block, or trims the raw input when no fences are present), and
Extract combines that with type-safe unmarshaling:

	type Answer struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}

	answer, err := result.Extract[Answer](responseText)
	if err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}

All functions operate on immutable input strings and are safe for concurrent
use.
*/
package result
