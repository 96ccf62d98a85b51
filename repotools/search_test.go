/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repotools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall"
	"chainguard.dev/repolens/ingest"
	"chainguard.dev/repolens/vectorstore"
	"github.com/google/go-github/v84/github"
)

// fakeEngine maps known queries and documents onto fixed unit vectors so
// search ordering is deterministic.
type fakeEngine struct{}

func (fakeEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := fakeEngine{}.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (fakeEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		switch {
		case strings.Contains(strings.ToLower(text), "parser"):
			out[i] = []float32{1, 0, 0}
		case strings.Contains(strings.ToLower(text), "auth"):
			out[i] = []float32{0, 1, 0}
		default:
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (fakeEngine) Dimensions() int { return 3 }

func newTestGitHub(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	client.BaseURL = base
	return client
}

func newTestToolset(t *testing.T, mux *http.ServeMux) *Toolset {
	t.Helper()
	ctx := context.Background()

	store, err := vectorstore.Open(ctx, filepath.Join(t.TempDir(), "index.db"), 3)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	docs := []vectorstore.Document{{
		Content: "Commit: Rewrite the parser\nAuthor: Ada\nFiles: parser.go",
		Type:    ingest.TypeCommit,
		Metadata: map[string]any{
			"sha": "aaa111222", "author": "Ada", "date": "2024-03-01T10:00:00Z",
			"additions": 150, "deletions": 10,
		},
	}, {
		Content: "Commit: Fix auth token refresh\nAuthor: Bob\nFiles: auth.go",
		Type:    ingest.TypeCommit,
		Metadata: map[string]any{
			"sha": "bbb333444", "author": "Bob", "date": "2024-03-05T10:00:00Z",
			"additions": 3, "deletions": 2,
		},
	}, {
		Content: "PR #42: Parser rewrite\nRewrites the parser.\nFiles changed: parser.go",
		Type:    ingest.TypePR,
		Metadata: map[string]any{
			"number": 42, "state": "closed", "date": "2024-02-20T09:00:00Z", "author": "ada",
		},
	}, {
		Content: "func ParseTokens(input string) ([]Token, error) {",
		Type:    ingest.TypeCode,
		Metadata: map[string]any{
			"file_path": "parser.go", "chunk_index": 0, "total_chunks": 2, "file_size": 2048,
		},
	}}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0.95, 0, 0.05},
	}
	if err := store.AddBatch(ctx, docs, embeddings); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	if mux == nil {
		mux = http.NewServeMux()
	}
	return New("octo", "widgets", store, fakeEngine{}, newTestGitHub(t, mux))
}

func TestSearchCommits(t *testing.T) {
	ts := newTestToolset(t, nil)

	out, err := ts.searchCommits(context.Background(), "parser changes")
	if err != nil {
		t.Fatalf("searchCommits() error = %v", err)
	}

	for _, want := range []string{
		"=== COMMIT SEARCH RESULTS ===",
		"Query: 'parser changes'",
		"=== COMMIT ANALYSIS ===",
		"Active contributors: Ada, Bob",
		"Trend: Primarily adding new features/code",
		"SHA: aaa1112",
		"Changes: +150 -10 (total: 160 lines)",
		"Size: Large change (major feature or significant refactor)",
		"Size: Small change (minor fix or tweak)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("searchCommits() output missing %q\n%s", want, out)
		}
	}
}

func TestSearchCommitsNoResults(t *testing.T) {
	ts := newTestToolset(t, nil)
	if err := ts.store.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	out, err := ts.searchCommits(context.Background(), "anything")
	if err != nil {
		t.Fatalf("searchCommits() error = %v", err)
	}
	if got, want := out, "No commits found matching the query."; got != want {
		t.Errorf("searchCommits() = %q, want %q", got, want)
	}
}

func TestSearchCode(t *testing.T) {
	ts := newTestToolset(t, nil)

	out, err := ts.searchCode(context.Background(), "parser implementation")
	if err != nil {
		t.Fatalf("searchCode() error = %v", err)
	}

	for _, want := range []string{
		"=== CODE SEARCH RESULTS ===",
		"File: parser.go",
		"Type: Go source file",
		"Location: Chunk 1 of 2 in this file",
		"File size: 2048 bytes",
		"func ParseTokens",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("searchCode() output missing %q\n%s", want, out)
		}
	}
}

func TestTimeline(t *testing.T) {
	ts := newTestToolset(t, nil)

	out, err := ts.timeline(context.Background(), "parser history")
	if err != nil {
		t.Fatalf("timeline() error = %v", err)
	}

	for _, want := range []string{
		"=== REPOSITORY TIMELINE ===",
		"Timeline Overview:",
		"commits",
		"Pull Request #42 - CLOSED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline() output missing %q\n%s", want, out)
		}
	}

	// Events are ordered newest first: the 2024-03-05 commit precedes the
	// 2024-03-01 commit, which precedes the 2024-02-20 PR.
	bob := strings.Index(out, "Commit by Bob")
	ada := strings.Index(out, "Commit by Ada")
	pr := strings.Index(out, "Pull Request #42")
	if bob < 0 || ada < 0 || pr < 0 || !(bob < ada && ada < pr) {
		t.Errorf("timeline() events out of order: bob=%d ada=%d pr=%d\n%s", bob, ada, pr, out)
	}
}

func TestFileTypeLabel(t *testing.T) {
	for _, tc := range []struct {
		path string
		want string
	}{
		{"main.go", "Go source file"},
		{"app.py", "Python module"},
		{"index.tsx", "JavaScript/TypeScript module"},
		{"README.md", "Documentation"},
		{"config.yaml", "Configuration"},
		{"Makefile", ""},
	} {
		if got := fileTypeLabel(tc.path); got != tc.want {
			t.Errorf("fileTypeLabel(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestToolsExposesFullToolset(t *testing.T) {
	ts := newTestToolset(t, nil)

	tools := Tools[string](ts)
	for _, name := range []string{
		"search_commits", "search_code", "get_timeline", "get_pr_details", "get_repository_stats",
	} {
		tool, ok := tools[name]
		if !ok {
			t.Errorf("Tools() missing %q", name)
			continue
		}
		if tool.Def.Name != name {
			t.Errorf("Tools()[%q].Def.Name = %q", name, tool.Def.Name)
		}
		if len(tool.Def.Parameters) == 0 {
			t.Errorf("Tools()[%q] has no parameters", name)
		}
	}
}

func TestToolHandlerMissingParam(t *testing.T) {
	ts := newTestToolset(t, nil)
	ctx := context.Background()
	trace := agenttrace.StartTrace[string](ctx, "test")

	tool := Tools[string](ts)["search_commits"]
	result := tool.Handler(ctx, toolcall.ToolCall{ID: "call-1", Name: "search_commits", Args: map[string]any{}}, trace, nil)
	if result["error"] == nil {
		t.Errorf("Handler() = %v, want error map", result)
	}
}

func TestToolHandlerReturnsText(t *testing.T) {
	ts := newTestToolset(t, nil)
	ctx := context.Background()
	trace := agenttrace.StartTrace[string](ctx, "test")

	tool := Tools[string](ts)["search_commits"]
	result := tool.Handler(ctx, toolcall.ToolCall{
		ID: "call-1", Name: "search_commits",
		Args: map[string]any{"query": "parser changes"},
	}, trace, nil)
	text, ok := result["result"].(string)
	if !ok {
		t.Fatalf("Handler() = %v, want result text", result)
	}
	if !strings.Contains(text, "COMMIT SEARCH RESULTS") {
		t.Errorf("Handler() result missing search output:\n%s", text)
	}
}

func TestSearchCommitsMissingSha(t *testing.T) {
	ctx := context.Background()

	store, err := vectorstore.Open(ctx, filepath.Join(t.TempDir(), "index.db"), 3)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	doc := vectorstore.Document{
		Content: "Commit: Rewrite the parser\nAuthor: Ada",
		Type:    ingest.TypeCommit,
		Metadata: map[string]any{
			"author": "Ada", "date": "2024-03-01T10:00:00Z",
		},
	}
	if err := store.AddBatch(ctx, []vectorstore.Document{doc}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	ts := New("octo", "widgets", store, fakeEngine{}, nil)
	out, err := ts.searchCommits(ctx, "parser changes")
	if err != nil {
		t.Fatalf("searchCommits() error = %v", err)
	}
	if !strings.Contains(out, "SHA: Unknown") {
		t.Errorf("searchCommits() output missing sha fallback:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		n    int
		want string
	}{
		{"abcdef", 10, "abcdef"},
		{"abcdef", 3, "abc"},
		// The 4-byte cut would split the second 3-byte rune.
		{"世界地図", 4, "世"},
		{"héllo", 2, "h"},
	} {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tc.in, tc.n, got)
		}
	}
}
