/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repoagent

import (
	"context"
	"strings"
	"testing"

	"chainguard.dev/repolens/agents/promptbuilder"
	"chainguard.dev/repolens/repotools"
	"github.com/google/go-cmp/cmp"
)

func testToolset() *repotools.Toolset {
	return repotools.New("octo", "widgets", nil, nil, nil)
}

func TestQuestionBind(t *testing.T) {
	prompt := promptbuilder.MustNewPrompt(`Context: {{question}}`)

	q := &Question{Repository: "octo/widgets", Question: "Who rewrote the parser?"}
	bound, err := q.Bind(prompt)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	text, err := bound.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, want := range []string{
		"<repository>octo/widgets</repository>",
		"<question>Who rewrote the parser?</question>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Build() missing %q:\n%s", want, text)
		}
	}
}

func TestUserPromptBuilds(t *testing.T) {
	q := &Question{Repository: "octo/widgets", Question: "What changed recently?"}
	bound, err := q.Bind(userPrompt)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if _, err := bound.Build(); err != nil {
		t.Errorf("Build() error = %v", err)
	}
}

func TestSystemInstructionsBuild(t *testing.T) {
	text, err := systemInstructions.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, tool := range []string{
		"search_commits", "search_code", "get_timeline", "get_pr_details", "get_repository_stats",
	} {
		if !strings.Contains(text, tool) {
			t.Errorf("system instructions missing tool %q", tool)
		}
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		cfg     Config
		tools   *repotools.Toolset
		wantErr string
	}{{
		name:    "missing model",
		cfg:     Config{},
		tools:   testToolset(),
		wantErr: "model is required",
	}, {
		name:    "missing toolset",
		cfg:     Config{Model: "claude-sonnet-4-20250514"},
		wantErr: "toolset is required",
	}, {
		name:    "unsupported model",
		cfg:     Config{Model: "gpt-4o"},
		tools:   testToolset(),
		wantErr: "unsupported model",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, tc.cfg, tc.tools)
			if err == nil {
				t.Fatal("New() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewClaudeAgent(t *testing.T) {
	agent, err := New(context.Background(), Config{
		Model:               "claude-sonnet-4-20250514",
		AnthropicAPIKey:     "test-key",
		MaxIterations:       5,
		TokenBudget:         100_000,
		MaxToolResultTokens: 4_000,
	}, testToolset())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got, want := agent.Repository(), "octo/widgets"; got != want {
		t.Errorf("Repository() = %q, want %q", got, want)
	}
}

func TestQueryRejectsEmptyQuestion(t *testing.T) {
	agent := &Agent{repository: "octo/widgets", run: func(context.Context, *Question) (*Answer, error) {
		t.Fatal("run should not be called")
		return nil, nil
	}}

	if _, err := agent.Query(context.Background(), "  "); err == nil {
		t.Error("Query() error = nil, want error")
	}
}

func TestQueryBindsRepository(t *testing.T) {
	var got *Question
	agent := &Agent{repository: "octo/widgets", run: func(_ context.Context, q *Question) (*Answer, error) {
		got = q
		return &Answer{Answer: "The parser was rewritten in PR #42.", Sources: []string{"PR #42"}}, nil
	}}

	answer, err := agent.Query(context.Background(), "Who rewrote the parser?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	want := &Question{Repository: "octo/widgets", Question: "Who rewrote the parser?"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("question mismatch (-want +got):\n%s", diff)
	}
	if answer.Answer == "" || len(answer.Sources) != 1 {
		t.Errorf("unexpected answer: %+v", answer)
	}
}

func TestQueryRejectsEmptyAnswer(t *testing.T) {
	agent := &Agent{repository: "octo/widgets", run: func(context.Context, *Question) (*Answer, error) {
		return &Answer{}, nil
	}}

	if _, err := agent.Query(context.Background(), "anything"); err == nil {
		t.Error("Query() error = nil, want error")
	}
}
