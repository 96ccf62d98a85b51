/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repotools

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/repolens/ingest"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const maxContributors = 10

// repositoryStats renders repository metadata, popularity, contributors,
// and index statistics.
func (t *Toolset) repositoryStats(ctx context.Context) (string, error) {
	repo, _, err := t.gh.Repositories.Get(ctx, t.owner, t.repo)
	if err != nil {
		return "", fmt.Errorf("fetching repository %s/%s: %w", t.owner, t.repo, err)
	}

	hr := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nREPOSITORY OVERVIEW: %s\n%s\n\n", hr, repo.GetFullName(), hr)

	description := repo.GetDescription()
	if description == "" {
		description = "No description"
	}
	fmt.Fprintf(&sb, "Description: %s\n", description)
	fmt.Fprintf(&sb, "Primary Language: %s\n", repo.GetLanguage())
	fmt.Fprintf(&sb, "Created: %s\n", repo.GetCreatedAt().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Last Updated: %s\n", repo.GetUpdatedAt().Format("2006-01-02"))
	if l := repo.GetLicense(); l != nil {
		fmt.Fprintf(&sb, "License: %s\n", l.GetName())
	}

	fmt.Fprintf(&sb, "\n%s\nPOPULARITY METRICS\n%s\n", hr, hr)
	stars := repo.GetStargazersCount()
	fmt.Fprintf(&sb, "Stars: %d\n", stars)
	fmt.Fprintf(&sb, "Forks: %d\n", repo.GetForksCount())
	fmt.Fprintf(&sb, "Watchers: %d\n", repo.GetSubscribersCount())
	fmt.Fprintf(&sb, "Open Issues: %d\n", repo.GetOpenIssuesCount())
	switch {
	case stars > 10000:
		sb.WriteString("\nPopularity: Highly popular project (top tier)\n")
	case stars > 1000:
		sb.WriteString("\nPopularity: Well-established project\n")
	case stars > 100:
		sb.WriteString("\nPopularity: Growing project\n")
	default:
		sb.WriteString("\nPopularity: Early stage or niche project\n")
	}

	fmt.Fprintf(&sb, "\n%s\nTOP CONTRIBUTORS\n%s\n", hr, hr)
	sb.WriteString(t.formatContributors(ctx))

	sb.WriteString(t.formatIndexStats(ctx))

	fmt.Fprintf(&sb, "\nGitHub URL: %s\n", repo.GetHTMLURL())
	return sb.String(), nil
}

// formatContributors renders the top contributors with their share of
// total commits as an ASCII table.
func (t *Toolset) formatContributors(ctx context.Context) string {
	contributors, _, err := t.gh.Repositories.ListContributors(ctx, t.owner, t.repo,
		&github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: maxContributors}})
	if err != nil {
		clog.FromContext(ctx).Warnf("Listing contributors for %s/%s: %v", t.owner, t.repo, err)
		return "Could not fetch contributors\n"
	}
	if len(contributors) > maxContributors {
		contributors = contributors[:maxContributors]
	}
	if len(contributors) == 0 {
		return "No contributors found\n"
	}

	var total int
	for _, c := range contributors {
		total += c.GetContributions()
	}

	var sb strings.Builder
	table := newStatsTable([]string{"Rank", "Login", "Commits", "Share"}, &sb)
	for i, c := range contributors {
		var share float64
		if total > 0 {
			share = float64(c.GetContributions()) / float64(total) * 100
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			c.GetLogin(),
			fmt.Sprintf("%d", c.GetContributions()),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	_ = table.Render()

	top := contributors[0]
	fmt.Fprintf(&sb, "\nTop contributor: %s with %d commits\n", top.GetLogin(), top.GetContributions())
	return sb.String()
}

// formatIndexStats reports document counts by type from the vector index.
func (t *Toolset) formatIndexStats(ctx context.Context) string {
	total, err := t.store.Count(ctx, "")
	if err != nil {
		clog.FromContext(ctx).Warnf("Counting indexed documents: %v", err)
		return ""
	}
	commits, _ := t.store.Count(ctx, ingest.TypeCommit)
	prs, _ := t.store.Count(ctx, ingest.TypePR)
	code, _ := t.store.Count(ctx, ingest.TypeCode)

	hr := strings.Repeat("=", 70)
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\nINDEXED DATA STATISTICS\n%s\n", hr, hr)
	fmt.Fprintf(&sb, "Indexed Commits: %d\n", commits)
	fmt.Fprintf(&sb, "Indexed Pull Requests: %d\n", prs)
	fmt.Fprintf(&sb, "Code Chunks: %d\n", code)
	fmt.Fprintf(&sb, "Total Documents: %d\n", total)
	sb.WriteString("\nThis index contains searchable history and code for semantic queries\n")
	return sb.String()
}

// newStatsTable builds a markdown-style table writer with left-aligned
// cells and no auto-formatting.
func newStatsTable(headers []string, w *strings.Builder) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 80,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
