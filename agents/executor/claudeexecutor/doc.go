/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeexecutor provides a generic executor for Claude-based agents
// that reduces boilerplate while maintaining flexibility for agent-specific
// logic.
//
// The executor handles the common conversation loop pattern including:
//   - Prompt rendering from templates
//   - Message streaming and accumulation
//   - Tool call execution and response handling
//   - Conversation hygiene (iteration cap, token budget, tool result truncation)
//   - JSON response parsing
//   - Trace management for observability
//
// # Basic Usage
//
// Create an executor with a client and prompt template:
//
//	client := anthropic.NewClient(
//	    option.WithAPIKey(apiKey),
//	)
//
//	prompt, _ := promptbuilder.NewPrompt("Answer this question about the repository: {{question}}")
//
//	exec, err := claudeexecutor.New[*Request, *Response](
//	    client,
//	    prompt,
//	    claudeexecutor.WithModel[*Request, *Response]("claude-sonnet-4-20250514"),
//	    claudeexecutor.WithMaxTokens[*Request, *Response](16000),
//	)
//	if err != nil {
//	    return nil, err
//	}
//
//	// Define tools if needed
//	tools := map[string]claudetool.Metadata[*Response]{
//	    "search_commits": claudetool.FromTool(searchCommitsTool),
//	}
//
//	// Execute the agent
//	response, err := exec.Execute(ctx, request, tools)
//
// # Conversation Hygiene
//
// Long tool-calling conversations accumulate history quickly. The executor
// enforces three limits:
//
//   - WithMaxIterations caps model round-trips (default 10). Exceeding it
//     returns an error wrapping ErrMaxIterations.
//   - WithTokenBudget caps the estimated size of the conversation history
//     (default 120000 tokens). Over budget, the history is trimmed to the
//     initial prompt plus the most recent messages.
//   - WithMaxToolResultTokens caps individual tool results (default 15000
//     tokens); larger results are truncated with a marker.
//
// Token counts are estimated at roughly four characters per token. If the
// provider still rejects a request for exceeding the context window, the
// executor resets the conversation to the initial prompt once and continues.
//
// # Extended Thinking
//
// Extended thinking allows Claude to show its internal reasoning process
// before responding. When enabled, reasoning blocks are captured in the
// trace:
//
//	exec, err := claudeexecutor.New[*Request, *Response](
//	    client,
//	    prompt,
//	    claudeexecutor.WithThinking[*Request, *Response](2048),
//	)
//
// Note: When thinking is enabled, temperature is automatically set to 1.0 as
// required by the Claude API.
//
// # Type Safety
//
// The executor is generic over Request and Response types, ensuring type
// safety throughout the conversation. The trace parameter in tool handlers is
// properly typed with the Response type.
package claudeexecutor
