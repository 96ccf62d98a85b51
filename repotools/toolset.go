/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repotools provides the retrieval tools a repository Q&A agent
// calls: semantic search over the indexed history plus live GitHub lookups.
package repotools

import (
	"context"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall"
	"chainguard.dev/repolens/agents/toolcall/params"
	"chainguard.dev/repolens/embed"
	"chainguard.dev/repolens/vectorstore"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// Toolset binds the retrieval tools to one indexed repository.
type Toolset struct {
	owner string
	repo  string

	store  *vectorstore.Store
	engine embed.Engine
	gh     *github.Client

	// ghv4 enables linked-issue lookups in get_pr_details; without it the
	// section is omitted.
	ghv4 *githubv4.Client
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithGraphQLClient enables linked-issue lookups via the GitHub GraphQL API.
func WithGraphQLClient(c *githubv4.Client) Option {
	return func(t *Toolset) {
		t.ghv4 = c
	}
}

// New creates a Toolset over the given repository's index and GitHub client.
func New(owner, repo string, store *vectorstore.Store, engine embed.Engine, gh *github.Client, opts ...Option) *Toolset {
	t := &Toolset{
		owner:  owner,
		repo:   repo,
		store:  store,
		engine: engine,
		gh:     gh,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Repository returns the "owner/repo" name the toolset is bound to.
func (t *Toolset) Repository() string {
	return t.owner + "/" + t.repo
}

// Tools returns the full retrieval toolset, typed for the agent's response.
func Tools[Resp any](t *Toolset) map[string]toolcall.Tool[Resp] {
	return map[string]toolcall.Tool[Resp]{
		"search_commits":       searchCommitsTool[Resp](t),
		"search_code":          searchCodeTool[Resp](t),
		"get_timeline":         timelineTool[Resp](t),
		"get_pr_details":       prDetailsTool[Resp](t),
		"get_repository_stats": statsTool[Resp](t),
	}
}

// queryTool wires a single-string-parameter tool to a text-producing
// function. Failures are returned to the model as error maps so the loop
// can continue.
func queryTool[Resp any](def toolcall.Definition, paramName string, fn func(ctx context.Context, arg string) (string, error)) toolcall.Tool[Resp] {
	return toolcall.Tool[Resp]{
		Def: def,
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[Resp], _ *Resp) map[string]any {
			arg, errResp := toolcall.Param[string](call, trace, paramName)
			if errResp != nil {
				return errResp
			}

			tc := trace.StartToolCall(call.ID, call.Name, map[string]any{paramName: arg})

			text, err := fn(ctx, arg)
			if err != nil {
				result := params.ErrorWithContext(err, map[string]any{paramName: arg})
				tc.Complete(result, err)
				return result
			}

			result := map[string]any{"result": text}
			tc.Complete(map[string]any{"result_length": len(text)}, nil)
			return result
		},
	}
}

func searchCommitsTool[Resp any](t *Toolset) toolcall.Tool[Resp] {
	return queryTool[Resp](toolcall.Definition{
		Name: "search_commits",
		Description: "Search commit history using semantic search with detailed analysis. " +
			"Returns commits with pattern analysis, size context, and trend insights. " +
			"Use for finding when changes were made, who made them, and understanding commit patterns.",
		Parameters: []toolcall.Parameter{
			{Name: "query", Type: "string", Description: "Natural language search query for commits (e.g., 'authentication changes', 'bug fixes by John', 'refactoring work')", Required: true},
		},
	}, "query", t.searchCommits)
}

func searchCodeTool[Resp any](t *Toolset) toolcall.Tool[Resp] {
	return queryTool[Resp](toolcall.Definition{
		Name: "search_code",
		Description: "Search for code with semantic understanding and detailed context. " +
			"Returns code snippets with file type analysis, size info, and location context. " +
			"Can find implementations even if exact keywords don't match.",
		Parameters: []toolcall.Parameter{
			{Name: "query", Type: "string", Description: "Natural language search query for code (e.g., 'authentication middleware', 'database connection logic', 'API endpoints')", Required: true},
		},
	}, "query", t.searchCode)
}

func timelineTool[Resp any](t *Toolset) toolcall.Tool[Resp] {
	return queryTool[Resp](toolcall.Definition{
		Name: "get_timeline",
		Description: "Get chronological timeline with event analysis and summaries. " +
			"Shows commits, PRs, and code changes ordered by date with overview statistics. " +
			"Use for understanding repository evolution.",
		Parameters: []toolcall.Parameter{
			{Name: "query", Type: "string", Description: "Query to filter timeline (e.g., 'authentication module', 'API changes', 'recent refactoring')", Required: true},
		},
	}, "query", t.timeline)
}

func prDetailsTool[Resp any](t *Toolset) toolcall.Tool[Resp] {
	return queryTool[Resp](toolcall.Definition{
		Name: "get_pr_details",
		Description: "Get comprehensive PR analysis including impact assessment, file groupings, " +
			"testing status, linked issues, and review discussion. " +
			"Input should be ONLY the PR number.",
		Parameters: []toolcall.Parameter{
			{Name: "pr_number", Type: "string", Description: "The PR number (just the number, no symbols)", Required: true},
		},
	}, "pr_number", t.prDetails)
}

func statsTool[Resp any](t *Toolset) toolcall.Tool[Resp] {
	return queryTool[Resp](toolcall.Definition{
		Name: "get_repository_stats",
		Description: "Get comprehensive repository analysis including popularity assessment, " +
			"contributor breakdown with percentages, and indexed data statistics.",
		Parameters: []toolcall.Parameter{
			{Name: "query", Type: "string", Description: "Query parameter (can be empty string)", Required: true},
		},
	}, "query", func(ctx context.Context, _ string) (string, error) {
		return t.repositoryStats(ctx)
	})
}
