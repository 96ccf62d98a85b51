/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repotools

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"chainguard.dev/repolens/ingest"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

const (
	maxFilesPerDirectory = 10
	maxReviewComments    = 8
	commentPreviewChars  = 500
	relatedContextChars  = 600
)

var digitsPattern = regexp.MustCompile(`\d+`)

// parsePRNumber tolerantly extracts a PR number from model-provided input
// like `#42`, `"42"`, or `PR 42`.
func parsePRNumber(raw string) (int, error) {
	cleaned := strings.Trim(strings.TrimSpace(raw), `'"#`)
	m := digitsPattern.FindString(cleaned)
	if m == "" {
		return 0, fmt.Errorf("could not extract PR number from %q: provide just the number", raw)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid PR number %q: %w", raw, err)
	}
	return n, nil
}

// prDetails fetches fresh PR data from GitHub and augments it with impact
// analysis, linked issues, and related indexed context.
func (t *Toolset) prDetails(ctx context.Context, rawNumber string) (string, error) {
	num, err := parsePRNumber(rawNumber)
	if err != nil {
		return "", err
	}

	pr, _, err := t.gh.PullRequests.Get(ctx, t.owner, t.repo, num)
	if err != nil {
		return "", fmt.Errorf("fetching PR #%d: %w", num, err)
	}

	// Changed files, best-effort.
	var files []*github.CommitFile
	if fs, _, err := t.gh.PullRequests.ListFiles(ctx, t.owner, t.repo, num,
		&github.ListOptions{PerPage: 100}); err == nil {
		files = fs
	} else {
		clog.FromContext(ctx).Warnf("Listing files for PR #%d: %v", num, err)
	}

	hr := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nPULL REQUEST #%d: %s\n%s\n\n", hr, pr.GetNumber(), pr.GetTitle(), hr)

	author := "Unknown"
	if u := pr.GetUser(); u != nil && u.GetLogin() != "" {
		author = u.GetLogin()
	}
	fmt.Fprintf(&sb, "Author: %s\n", author)
	fmt.Fprintf(&sb, "Created: %s\n", pr.GetCreatedAt().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "State: %s\n", strings.ToUpper(pr.GetState()))
	if pr.GetMerged() {
		fmt.Fprintf(&sb, "Merged: %s\n", pr.GetMergedAt().Format("2006-01-02 15:04 UTC"))
		if mb := pr.GetMergedBy(); mb != nil {
			fmt.Fprintf(&sb, "   Merged by: %s\n", mb.GetLogin())
		}
	}

	sb.WriteString(analyzePRImpact(pr, files))

	fmt.Fprintf(&sb, "\n%s\nDESCRIPTION\n%s\n", hr, hr)
	if body := strings.TrimSpace(pr.GetBody()); body != "" {
		fmt.Fprintf(&sb, "%s\n", body)
	} else {
		sb.WriteString("No description provided.\n")
	}

	if len(files) > 0 {
		fmt.Fprintf(&sb, "\n%s\nFILES CHANGED (%d)\n%s\n", hr, len(files), hr)
		sb.WriteString(formatFilesByDirectory(files))
	}

	fmt.Fprintf(&sb, "\n%s\nSTATISTICS\n%s\n", hr, hr)
	fmt.Fprintf(&sb, "Lines changed: +%d additions, -%d deletions\n", pr.GetAdditions(), pr.GetDeletions())
	fmt.Fprintf(&sb, "Commits: %d\n", pr.GetCommits())
	fmt.Fprintf(&sb, "Comments: %d\n", pr.GetComments())
	fmt.Fprintf(&sb, "Review comments: %d\n", pr.GetReviewComments())

	sb.WriteString(t.formatReviewDiscussion(ctx, num))
	sb.WriteString(t.formatLinkedIssues(ctx, num))
	sb.WriteString(t.formatRelatedContext(ctx, num))

	fmt.Fprintf(&sb, "\nGitHub URL: %s\n", pr.GetHTMLURL())
	return sb.String(), nil
}

// analyzePRImpact summarizes the PR's size, file spread, testing and
// documentation coverage, discussion activity, and merge status.
func analyzePRImpact(pr *github.PullRequest, files []*github.CommitFile) string {
	var sb strings.Builder
	sb.WriteString("\n=== IMPACT ANALYSIS ===\n")

	totalChanges := pr.GetAdditions() + pr.GetDeletions()
	switch {
	case totalChanges < 50:
		sb.WriteString("Scope: Small PR - Quick review recommended\n")
	case totalChanges < 300:
		sb.WriteString("Scope: Medium PR - Thorough review needed\n")
	default:
		sb.WriteString("Scope: Large PR - Consider breaking into smaller PRs\n")
	}

	if len(files) > 0 {
		types := make(map[string]bool)
		hasTests := false
		hasDocs := false
		for _, f := range files {
			name := f.GetFilename()
			ext := strings.TrimPrefix(path.Ext(name), ".")
			if ext == "" {
				ext = "no-ext"
			}
			types[ext] = true
			if strings.Contains(strings.ToLower(name), "test") {
				hasTests = true
			}
			if hasAnySuffix(name, ".md", ".txt") {
				hasDocs = true
			}
		}
		fmt.Fprintf(&sb, "Files affected: %d files across %d file types\n", len(files), len(types))
		if hasTests {
			sb.WriteString("Testing: Includes test file changes\n")
		} else {
			sb.WriteString("Testing: No test files modified - consider adding tests\n")
		}
		if hasDocs {
			sb.WriteString("Documentation: Includes documentation updates\n")
		}
	}

	if n := pr.GetComments() + pr.GetReviewComments(); n > 0 {
		fmt.Fprintf(&sb, "Discussion: %d comments - Active review process\n", n)
	} else {
		sb.WriteString("Discussion: No comments yet\n")
	}

	switch {
	case pr.GetMerged():
		sb.WriteString("Status: Merged successfully")
		if mb := pr.GetMergedBy(); mb != nil {
			fmt.Fprintf(&sb, " by %s", mb.GetLogin())
		}
		sb.WriteString("\n")
	case pr.GetState() == "open":
		sb.WriteString("Status: Open and awaiting review\n")
	default:
		sb.WriteString("Status: Closed without merging\n")
	}
	return sb.String()
}

// formatFilesByDirectory groups changed files by directory with per-file
// line stats and change-type markers.
func formatFilesByDirectory(files []*github.CommitFile) string {
	dirs := make(map[string][]*github.CommitFile)
	for _, f := range files {
		dir := path.Dir(f.GetFilename())
		if dir == "." {
			dir = "root"
		}
		dirs[dir] = append(dirs[dir], f)
	}
	names := make([]string, 0, len(dirs))
	for d := range dirs {
		names = append(names, d)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, dir := range names {
		fmt.Fprintf(&sb, "\n%s/\n", dir)
		dirFiles := dirs[dir]
		for i, f := range dirFiles {
			if i >= maxFilesPerDirectory {
				fmt.Fprintf(&sb, "   ... and %d more files\n", len(dirFiles)-maxFilesPerDirectory)
				break
			}
			fmt.Fprintf(&sb, "   - %s (+%d -%d)", path.Base(f.GetFilename()), f.GetAdditions(), f.GetDeletions())
			if f.GetAdditions() > 0 && f.GetDeletions() == 0 {
				sb.WriteString(" [NEW]")
			} else if f.GetDeletions() > f.GetAdditions()*2 {
				sb.WriteString(" [MAJOR REFACTOR]")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// formatReviewDiscussion renders up to maxReviewComments review comments
// with bounded previews. Failures drop the section rather than the tool.
func (t *Toolset) formatReviewDiscussion(ctx context.Context, num int) string {
	comments, _, err := t.gh.PullRequests.ListComments(ctx, t.owner, t.repo, num,
		&github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: maxReviewComments}})
	if err != nil {
		clog.FromContext(ctx).Warnf("Listing comments for PR #%d: %v", num, err)
		return ""
	}
	if len(comments) > maxReviewComments {
		comments = comments[:maxReviewComments]
	}
	if len(comments) == 0 {
		return ""
	}

	hr := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\nREVIEW DISCUSSION (showing %d comments)\n%s\n", hr, len(comments), hr)
	for i, c := range comments {
		fmt.Fprintf(&sb, "\nComment #%d by %s on %s\n", i+1,
			c.GetUser().GetLogin(), c.GetCreatedAt().Format("2006-01-02 15:04"))
		body := c.GetBody()
		preview := truncate(body, commentPreviewChars)
		if len(body) > commentPreviewChars {
			preview += "..."
		}
		fmt.Fprintf(&sb, "%s\n%s\n", preview, strings.Repeat("-", 70))
	}
	return sb.String()
}

// formatLinkedIssues resolves the issues this PR closes via the GraphQL
// closingIssuesReferences connection. Requires a GraphQL client.
func (t *Toolset) formatLinkedIssues(ctx context.Context, num int) string {
	if t.ghv4 == nil {
		return ""
	}

	var q struct {
		Repository struct {
			PullRequest struct {
				ClosingIssuesReferences struct {
					Nodes []struct {
						Number githubv4.Int
						Title  githubv4.String
						State  githubv4.String
					}
				} `graphql:"closingIssuesReferences(first: 5)"`
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(t.owner),
		"name":   githubv4.String(t.repo),
		"number": githubv4.Int(num),
	}
	if err := t.ghv4.Query(ctx, &q, vars); err != nil {
		clog.FromContext(ctx).Warnf("Resolving linked issues for PR #%d: %v", num, err)
		return ""
	}

	nodes := q.Repository.PullRequest.ClosingIssuesReferences.Nodes
	if len(nodes) == 0 {
		return ""
	}

	hr := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\nLINKED ISSUES\n%s\n", hr, hr)
	for _, n := range nodes {
		fmt.Fprintf(&sb, "   - #%d %s (%s)\n", n.Number, n.Title, strings.ToLower(string(n.State)))
	}
	return sb.String()
}

// formatRelatedContext pulls the closest indexed PR document for extra
// context. Best-effort.
func (t *Toolset) formatRelatedContext(ctx context.Context, num int) string {
	results, err := t.search(ctx, fmt.Sprintf("pull request %d", num), 3, ingest.TypePR)
	if err != nil {
		clog.FromContext(ctx).Warnf("Searching related context for PR #%d: %v", num, err)
		return ""
	}
	for _, r := range results {
		if n, ok := metaInt(r.Metadata, "number"); !ok || n != num {
			continue
		}
		hr := strings.Repeat("=", 70)
		return fmt.Sprintf("\n%s\nRELATED CONTEXT FROM REPOSITORY\n%s\n%s...\n",
			hr, hr, truncate(r.Content, relatedContextChars))
	}
	return ""
}
