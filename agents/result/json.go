/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result decodes structured payloads out of free-form model text.
package result

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the JSON payload out of a model response. Models often
// wrap their output in a fenced ```json block even when asked for bare JSON,
// so the fenced form is tried first and the trimmed raw text is the fallback.
func ExtractJSON(responseText string) string {
	if body, ok := fencedJSONBlock(responseText); ok {
		return body
	}

	// No fenced block on its own line. Strip any inline fence markers and
	// surrounding whitespace and hope the remainder is JSON.
	text := strings.TrimSpace(responseText)
	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// fencedJSONBlock returns the content of the first ```json fence whose
// markers sit on their own lines. An empty block returns ("", true) so the
// caller surfaces the unmarshal error instead of parsing the fence markers.
func fencedJSONBlock(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "```json" {
			continue
		}
		var body []string
		for _, rest := range lines[i+1:] {
			if rest == "```" {
				break
			}
			body = append(body, rest)
		}
		return strings.TrimSpace(strings.Join(body, "\n")), true
	}
	return "", false
}

// Extract runs ExtractJSON and unmarshals the payload into T.
func Extract[T any](responseText string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &out); err != nil {
		return out, err
	}
	return out, nil
}
