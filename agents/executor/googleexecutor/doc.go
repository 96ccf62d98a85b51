/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleexecutor provides a generic executor for Gemini-based agents
// mirroring the claudeexecutor package.
//
// The executor handles the common conversation loop pattern including:
//   - Prompt rendering from templates
//   - Chat session management and message sending
//   - Tool call execution and response handling
//   - Malformed function call recovery
//   - Iteration capping
//   - JSON response parsing
//   - Trace management for observability
//
// # Basic Usage
//
//	client, err := genai.NewClient(ctx, &genai.ClientConfig{
//	    APIKey:  apiKey,
//	    Backend: genai.BackendGeminiAPI,
//	})
//	if err != nil {
//	    return nil, err
//	}
//
//	prompt, _ := promptbuilder.NewPrompt("Answer this question about the repository: {{question}}")
//
//	exec, err := googleexecutor.New[*Request, *Response](
//	    client,
//	    prompt,
//	    googleexecutor.WithModel[*Request, *Response]("gemini-2.5-flash"),
//	)
//	if err != nil {
//	    return nil, err
//	}
//
//	tools := map[string]googletool.Metadata[*Response]{
//	    "search_commits": googletool.FromTool(searchCommitsTool),
//	}
//
//	response, err := exec.Execute(ctx, request, tools)
//
// # Options
//
//   - WithModel: Override the default model (defaults to gemini-2.5-flash)
//   - WithMaxOutputTokens: Set maximum response tokens (defaults to 8192)
//   - WithTemperature: Set response temperature, 0.0-2.0 (defaults to 0.1)
//   - WithSystemInstructions: Provide system-level instructions
//   - WithMaxIterations: Cap model round-trips (defaults to 10)
//   - WithThinking: Enable thinking mode with a token budget (-1 for dynamic)
//   - WithResponseSchema: Constrain output to a structured schema
//
// Unlike the Claude executor, conversation history lives inside the SDK's
// chat session, so token budget trimming is not applied here; the iteration
// cap bounds runaway conversations instead.
package googleexecutor
