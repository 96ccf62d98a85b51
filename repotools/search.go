/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repotools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"chainguard.dev/repolens/ingest"
	"chainguard.dev/repolens/vectorstore"
)

const (
	commitSearchLimit = 15
	codeSearchLimit   = 8
	timelineFetch     = 20
	timelineShow      = 15
)

// searchCommits runs a semantic search over indexed commits and prepends a
// pattern analysis of the result set.
func (t *Toolset) searchCommits(ctx context.Context, query string) (string, error) {
	results, err := t.search(ctx, query, commitSearchLimit, ingest.TypeCommit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No commits found matching the query.", nil
	}

	var sb strings.Builder
	sb.WriteString("=== COMMIT SEARCH RESULTS ===\n")
	fmt.Fprintf(&sb, "Query: '%s'\n", query)
	fmt.Fprintf(&sb, "Found %d relevant commits\n\n", len(results))
	sb.WriteString(analyzeCommitPatterns(results))
	sb.WriteString("\n")

	for i, r := range results {
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(&sb, "COMMIT #%d\n", i+1)
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(&sb, "SHA: %s\n", truncate(metaStringOr(r.Metadata, "sha", "Unknown"), 7))
		fmt.Fprintf(&sb, "Author: %s\n", metaStringOr(r.Metadata, "author", "Unknown"))
		fmt.Fprintf(&sb, "Date: %s\n", truncate(metaString(r.Metadata, "date"), 10))

		additions, okA := metaInt(r.Metadata, "additions")
		deletions, okD := metaInt(r.Metadata, "deletions")
		if okA && okD {
			changes := additions + deletions
			fmt.Fprintf(&sb, "Changes: +%d -%d (total: %d lines)\n", additions, deletions, changes)
			switch {
			case changes < 10:
				sb.WriteString("Size: Small change (minor fix or tweak)\n")
			case changes < 100:
				sb.WriteString("Size: Medium change (feature addition or refactor)\n")
			default:
				sb.WriteString("Size: Large change (major feature or significant refactor)\n")
			}
		}
		fmt.Fprintf(&sb, "\n%s\n\n", r.Content)
	}
	return sb.String(), nil
}

// analyzeCommitPatterns summarizes totals, contributors, and the overall
// trend of a commit result set.
func analyzeCommitPatterns(results []vectorstore.Result) string {
	if len(results) == 0 {
		return ""
	}

	var totalAdditions, totalDeletions int
	seen := make(map[string]bool)
	var authors []string
	for _, r := range results {
		author := metaStringOr(r.Metadata, "author", "Unknown")
		if !seen[author] {
			seen[author] = true
			authors = append(authors, author)
		}
		if a, ok := metaInt(r.Metadata, "additions"); ok {
			totalAdditions += a
		}
		if d, ok := metaInt(r.Metadata, "deletions"); ok {
			totalDeletions += d
		}
	}

	var sb strings.Builder
	sb.WriteString("\n=== COMMIT ANALYSIS ===\n")
	fmt.Fprintf(&sb, "Total changes: +%d additions, -%d deletions\n", totalAdditions, totalDeletions)
	fmt.Fprintf(&sb, "Active contributors: %s\n", strings.Join(authors, ", "))
	switch {
	case totalAdditions > totalDeletions*2:
		sb.WriteString("Trend: Primarily adding new features/code\n")
	case totalDeletions > totalAdditions*2:
		sb.WriteString("Trend: Significant code cleanup or refactoring\n")
	default:
		sb.WriteString("Trend: Balanced mix of additions and modifications\n")
	}
	return sb.String()
}

// searchCode runs a semantic search over indexed code chunks.
func (t *Toolset) searchCode(ctx context.Context, query string) (string, error) {
	results, err := t.search(ctx, query, codeSearchLimit, ingest.TypeCode)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No code found matching the query.", nil
	}

	files := make(map[string]bool)
	for _, r := range results {
		files[metaStringOr(r.Metadata, "file_path", "Unknown")] = true
	}

	var sb strings.Builder
	sb.WriteString("=== CODE SEARCH RESULTS ===\n")
	fmt.Fprintf(&sb, "Query: '%s'\n", query)
	fmt.Fprintf(&sb, "Found %d relevant code snippets\n\n", len(results))
	fmt.Fprintf(&sb, "Spans %d files across the repository\n", len(files))
	sb.WriteString("Tip: Use get_timeline to see when these were last modified\n\n")

	for i, r := range results {
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 70))
		fmt.Fprintf(&sb, "RESULT #%d\n", i+1)
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 70))

		filePath := metaStringOr(r.Metadata, "file_path", "Unknown")
		fmt.Fprintf(&sb, "File: %s\n", filePath)
		if label := fileTypeLabel(filePath); label != "" {
			fmt.Fprintf(&sb, "Type: %s\n", label)
		}

		chunkIdx, _ := metaInt(r.Metadata, "chunk_index")
		totalChunks, _ := metaInt(r.Metadata, "total_chunks")
		if totalChunks > 1 {
			fmt.Fprintf(&sb, "Location: Chunk %d of %d in this file\n", chunkIdx+1, totalChunks)
		}
		if size, ok := metaInt(r.Metadata, "file_size"); ok && size > 0 {
			fmt.Fprintf(&sb, "File size: %d bytes\n", size)
		}

		sb.WriteString("\nCode:\n```\n")
		sb.WriteString(truncate(r.Content, 1000))
		if len(r.Content) > 1000 {
			sb.WriteString("\n... [truncated, full context available in file]")
		}
		sb.WriteString("\n```\n\n")
	}
	return sb.String(), nil
}

// fileTypeLabel maps a file extension to a short description for the model.
func fileTypeLabel(path string) string {
	switch {
	case strings.HasSuffix(path, ".go"):
		return "Go source file"
	case strings.HasSuffix(path, ".py"):
		return "Python module"
	case hasAnySuffix(path, ".js", ".jsx", ".ts", ".tsx"):
		return "JavaScript/TypeScript module"
	case hasAnySuffix(path, ".md", ".txt", ".rst"):
		return "Documentation"
	case hasAnySuffix(path, ".yaml", ".yml", ".json", ".toml"):
		return "Configuration"
	default:
		return ""
	}
}

// timeline searches across all document types and presents the most recent
// matches in reverse chronological order.
func (t *Toolset) timeline(ctx context.Context, query string) (string, error) {
	results, err := t.search(ctx, query, timelineFetch, "")
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No timeline information found.", nil
	}

	// Metadata dates are RFC 3339, so a string sort is chronological.
	sort.SliceStable(results, func(i, j int) bool {
		return metaString(results[i].Metadata, "date") > metaString(results[j].Metadata, "date")
	})
	if len(results) > timelineShow {
		results = results[:timelineShow]
	}

	var sb strings.Builder
	sb.WriteString("=== REPOSITORY TIMELINE ===\n")
	fmt.Fprintf(&sb, "Query: '%s'\n", query)
	fmt.Fprintf(&sb, "Showing %d most recent relevant events\n\n", len(results))

	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Type]++
	}
	sb.WriteString("Timeline Overview:\n")
	if n := counts[ingest.TypeCommit]; n > 0 {
		fmt.Fprintf(&sb, "   - %d commits\n", n)
	}
	if n := counts[ingest.TypePR]; n > 0 {
		fmt.Fprintf(&sb, "   - %d pull requests\n", n)
	}
	if n := counts[ingest.TypeCode]; n > 0 {
		fmt.Fprintf(&sb, "   - %d code snapshots\n", n)
	}
	sb.WriteString("\n")

	for i, r := range results {
		date := metaStringOr(r.Metadata, "date", "Unknown date")
		fmt.Fprintf(&sb, "%s\n", strings.Repeat("=", 70))
		fmt.Fprintf(&sb, "[%s] EVENT #%d\n", truncate(date, 10), i+1)

		switch r.Type {
		case ingest.TypePR:
			number, _ := metaInt(r.Metadata, "number")
			state := strings.ToUpper(metaStringOr(r.Metadata, "state", "unknown"))
			fmt.Fprintf(&sb, "Pull Request #%d - %s\n", number, state)
			fmt.Fprintf(&sb, "   Author: %s\n", metaStringOr(r.Metadata, "author", "Unknown"))
		case ingest.TypeCommit:
			fmt.Fprintf(&sb, "Commit by %s\n", metaStringOr(r.Metadata, "author", "Unknown"))
			additions, okA := metaInt(r.Metadata, "additions")
			deletions, okD := metaInt(r.Metadata, "deletions")
			if okA && okD {
				fmt.Fprintf(&sb, "   Changes: +%d -%d lines\n", additions, deletions)
			}
		case ingest.TypeCode:
			fmt.Fprintf(&sb, "Code: %s\n", metaStringOr(r.Metadata, "file_path", "Unknown"))
		}

		excerpt := strings.TrimSpace(strings.ReplaceAll(truncate(r.Content, 250), "\n", " "))
		fmt.Fprintf(&sb, "\nSummary: %s...\n\n", excerpt)
	}
	return sb.String(), nil
}

// search embeds the query and runs a nearest-neighbor lookup.
func (t *Toolset) search(ctx context.Context, query string, k int, docType string) ([]vectorstore.Result, error) {
	vec, err := t.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := t.store.Search(ctx, vec, k, docType)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return results, nil
}

// Metadata helpers. Values read back from the store went through JSON, so
// numbers arrive as float64.

func metaString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func metaStringOr(m map[string]any, key, fallback string) string {
	if v := metaString(m, key); v != "" {
		return v
	}
	return fallback
}

func metaInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so
// multi-byte content is never split mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
