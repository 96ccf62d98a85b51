/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repoagent runs an LLM tool-calling loop that answers natural
// language questions about one indexed GitHub repository.
package repoagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/repolens/agents/executor/claudeexecutor"
	"chainguard.dev/repolens/agents/executor/googleexecutor"
	"chainguard.dev/repolens/agents/promptbuilder"
	"chainguard.dev/repolens/agents/submitresult"
	"chainguard.dev/repolens/agents/toolcall/claudetool"
	"chainguard.dev/repolens/agents/toolcall/googletool"
	"chainguard.dev/repolens/repotools"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// Question carries the repository name and the user's question into the
// agent prompt.
type Question struct {
	Repository string `xml:"repository"`
	Question   string `xml:"question"`
}

// Bind implements promptbuilder.Bindable using XML binding
func (q *Question) Bind(prompt *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return prompt.BindXML("question", q)
}

// Answer is the agent's response.
type Answer struct {
	Answer  string   `json:"answer" jsonschema:"description=Prose answer to the question grounded in tool results"`
	Sources []string `json:"sources" jsonschema:"description=Evidence the answer relies on (commit SHAs / PR numbers / file paths)"`
}

// Config selects the model and its provider credentials.
type Config struct {
	// Model picks the provider by prefix: claude-* routes to Anthropic,
	// gemini-* routes to the Gemini API.
	Model string

	AnthropicAPIKey string
	GeminiAPIKey    string

	// MaxIterations caps model round-trips per question. Zero keeps the
	// executor default.
	MaxIterations int

	// TokenBudget caps the estimated conversation size (Claude only).
	// Zero keeps the executor default.
	TokenBudget int

	// MaxToolResultTokens caps a single tool result before truncation
	// (Claude only). Zero keeps the executor default.
	MaxToolResultTokens int
}

// runFunc executes one bound question against a provider-specific executor.
type runFunc func(ctx context.Context, q *Question) (*Answer, error)

// Agent answers questions about a single indexed repository.
type Agent struct {
	repository string
	run        runFunc
}

// New builds an agent for the toolset's repository, routing to the provider
// the configured model name implies.
func New(ctx context.Context, cfg Config, tools *repotools.Toolset) (*Agent, error) {
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if tools == nil {
		return nil, errors.New("toolset is required")
	}

	var run runFunc
	var err error
	switch {
	case strings.HasPrefix(cfg.Model, "claude-"):
		run, err = newClaudeRun(cfg, tools)
	case strings.HasPrefix(cfg.Model, "gemini-"):
		run, err = newGeminiRun(ctx, cfg, tools)
	default:
		return nil, fmt.Errorf("unsupported model %q (expected claude-* or gemini-*)", cfg.Model)
	}
	if err != nil {
		return nil, err
	}

	return &Agent{
		repository: tools.Repository(),
		run:        run,
	}, nil
}

// Repository returns the "owner/repo" name this agent answers for.
func (a *Agent) Repository() string {
	return a.repository
}

// Query answers one question about the repository.
func (a *Agent) Query(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}

	log := clog.FromContext(ctx).With("repository", a.repository)
	log.With("question_length", len(question)).Info("Answering repository question")

	answer, err := a.run(ctx, &Question{
		Repository: a.repository,
		Question:   question,
	})
	if err != nil {
		return nil, fmt.Errorf("running agent: %w", err)
	}
	if answer == nil || answer.Answer == "" {
		return nil, errors.New("agent returned an empty answer")
	}

	log.With("sources", len(answer.Sources)).Info("Answered repository question")
	return answer, nil
}

func newClaudeRun(cfg Config, tools *repotools.Toolset) (runFunc, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
	)

	opts := []claudeexecutor.Option[*Question, *Answer]{
		claudeexecutor.WithModel[*Question, *Answer](cfg.Model),
		claudeexecutor.WithSystemInstructions[*Question, *Answer](systemInstructions),
		claudeexecutor.WithSubmitResultProvider[*Question, *Answer](submitresult.ClaudeToolForResponse[*Answer]),
	}
	if cfg.MaxIterations > 0 {
		opts = append(opts, claudeexecutor.WithMaxIterations[*Question, *Answer](cfg.MaxIterations))
	}
	if cfg.TokenBudget > 0 {
		opts = append(opts, claudeexecutor.WithTokenBudget[*Question, *Answer](cfg.TokenBudget))
	}
	if cfg.MaxToolResultTokens > 0 {
		opts = append(opts, claudeexecutor.WithMaxToolResultTokens[*Question, *Answer](cfg.MaxToolResultTokens))
	}

	exec, err := claudeexecutor.New[*Question, *Answer](client, userPrompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Claude executor: %w", err)
	}

	toolMap := claudetool.Map(repotools.Tools[*Answer](tools))
	return func(ctx context.Context, q *Question) (*Answer, error) {
		return exec.Execute(ctx, q, toolMap)
	}, nil
}

func newGeminiRun(ctx context.Context, cfg Config, tools *repotools.Toolset) (runFunc, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	opts := []googleexecutor.Option[*Question, *Answer]{
		googleexecutor.WithModel[*Question, *Answer](cfg.Model),
		googleexecutor.WithSystemInstructions[*Question, *Answer](systemInstructions),
		googleexecutor.WithSubmitResultProvider[*Question, *Answer](submitresult.GoogleToolForResponse[*Answer]),
	}
	if cfg.MaxIterations > 0 {
		opts = append(opts, googleexecutor.WithMaxIterations[*Question, *Answer](cfg.MaxIterations))
	}

	exec, err := googleexecutor.New[*Question, *Answer](client, userPrompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini executor: %w", err)
	}

	toolMap := googletool.Map(repotools.Tools[*Answer](tools))
	return func(ctx context.Context, q *Question) (*Answer, error) {
		return exec.Execute(ctx, q, toolMap)
	}, nil
}
