/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	// defaultMaxIterations caps model round-trips per Execute call.
	defaultMaxIterations = 10

	// defaultTokenBudget is the estimated token ceiling for the accumulated
	// conversation history.
	defaultTokenBudget = 120000

	// defaultMaxToolResultTokens caps the size of a single tool result
	// before it is truncated.
	defaultMaxToolResultTokens = 15000

	// keepRecentMessages is how many trailing messages survive a history trim,
	// in addition to the initial user prompt.
	keepRecentMessages = 8

	// charsPerToken is the rough chars-to-tokens ratio used for estimation.
	charsPerToken = 4

	truncationMarker = "\n\n[... truncated ...]"
)

// estimateTokens approximates the token count of the conversation by
// serializing it and dividing the character count by charsPerToken. This is
// deliberately crude: it only needs to be accurate enough to trigger trimming
// before the provider rejects the request.
func estimateTokens(messages []anthropic.MessageParam) int {
	if len(messages) == 0 {
		return 0
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return len(data) / charsPerToken
}

// trimMessages drops the middle of the conversation, keeping the initial user
// prompt plus the most recent keep messages. The tail is advanced past any
// leading tool-result message so the trimmed history never opens with a tool
// result whose tool_use was discarded.
func trimMessages(messages []anthropic.MessageParam, keep int) []anthropic.MessageParam {
	if len(messages) <= keep+1 {
		return messages
	}

	start := len(messages) - keep
	for start < len(messages) && isToolResultMessage(messages[start]) {
		start++
	}

	trimmed := make([]anthropic.MessageParam, 0, 1+len(messages)-start)
	trimmed = append(trimmed, messages[0])
	trimmed = append(trimmed, messages[start:]...)
	return trimmed
}

// resetConversation discards everything except the initial user prompt and
// tells the model the history was dropped.
func resetConversation(messages []anthropic.MessageParam) []anthropic.MessageParam {
	if len(messages) == 0 {
		return messages
	}
	return []anthropic.MessageParam{
		messages[0],
		{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock("The conversation history grew too long and has been reset. Please answer the original question using fresh tool calls."),
			},
		},
	}
}

// truncateToolResult caps a tool result at maxTokens (estimated) and appends
// a marker so the model knows content was dropped. The cut backs up to a
// rune boundary so multi-byte content is never split mid-rune.
func truncateToolResult(text string, maxTokens int) string {
	maxChars := maxTokens * charsPerToken
	if len(text) <= maxChars {
		return text
	}
	for maxChars > 0 && !utf8.RuneStart(text[maxChars]) {
		maxChars--
	}
	return text[:maxChars] + truncationMarker
}

// isToolResultMessage reports whether every content block in the message is a
// tool result.
func isToolResultMessage(m anthropic.MessageParam) bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, block := range m.Content {
		if block.OfToolResult == nil {
			return false
		}
	}
	return true
}
