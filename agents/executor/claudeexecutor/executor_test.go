//go:build withauth

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor_test

import (
	"context"
	"os"
	"testing"

	"chainguard.dev/repolens/agents/executor/claudeexecutor"
	"chainguard.dev/repolens/agents/promptbuilder"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// simpleRequest implements promptbuilder.Bindable for testing
type simpleRequest struct {
	Question string
}

func (r *simpleRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	// Bind question as XML to safely handle user input
	return p.BindXML("question", struct {
		XMLName struct{} `xml:"question"`
		Content string   `xml:",chardata"`
	}{
		Content: r.Question,
	})
}

// simpleResponse is the expected JSON response format
type simpleResponse struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

func apiKeyOrSkip(t *testing.T) string {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("Skipping integration test: ANTHROPIC_API_KEY not set")
	}
	return key
}

func TestExecutorBasicQuestion(t *testing.T) {
	ctx := context.Background()

	if testing.Short() {
		t.Skip("Skipping anthropic test in short mode.")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKeyOrSkip(t)),
	)

	prompt, err := promptbuilder.NewPrompt(`You are a helpful math assistant.

Question: {{question}}

Please solve this problem and provide your answer in JSON format:
{
  "answer": "the numerical answer",
  "reasoning": "brief explanation of how you solved it"
}`)
	if err != nil {
		t.Fatalf("Failed to create prompt: %v", err)
	}

	exec, err := claudeexecutor.New[*simpleRequest, *simpleResponse](
		client,
		prompt,
		claudeexecutor.WithMaxTokens[*simpleRequest, *simpleResponse](4096),
	)
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	response, err := exec.Execute(ctx, &simpleRequest{Question: "What is 17 * 23?"}, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if response == nil {
		t.Fatal("Expected non-nil response")
	}
	if response.Answer == "" {
		t.Error("Expected non-empty answer")
	}

	t.Logf("Response: answer=%q, reasoning=%q", response.Answer, response.Reasoning)
}
