/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repotools

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeStatsMux serves the repository and contributors endpoints
// repositoryStats touches for octo/widgets.
func newFakeStatsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/widgets", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"full_name": "octo/widgets",
			"description": "A widget factory",
			"language": "Go",
			"created_at": "2020-01-15T00:00:00Z",
			"updated_at": "2024-03-05T00:00:00Z",
			"license": {"name": "Apache License 2.0"},
			"stargazers_count": 1500,
			"forks_count": 120,
			"subscribers_count": 48,
			"open_issues_count": 7,
			"html_url": "https://github.com/octo/widgets"
		}`)
	})
	mux.HandleFunc("GET /repos/octo/widgets/contributors", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"login": "alice", "contributions": 60},
			{"login": "bob", "contributions": 40}
		]`)
	})
	return mux
}

func TestRepositoryStats(t *testing.T) {
	ts := newTestToolset(t, newFakeStatsMux())

	out, err := ts.repositoryStats(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out, "REPOSITORY OVERVIEW: octo/widgets")
	assert.Contains(t, out, "Description: A widget factory")
	assert.Contains(t, out, "Primary Language: Go")
	assert.Contains(t, out, "Created: 2020-01-15")
	assert.Contains(t, out, "License: Apache License 2.0")

	assert.Contains(t, out, "Stars: 1500")
	assert.Contains(t, out, "Watchers: 48")
	assert.Contains(t, out, "Popularity: Well-established project")

	// Contributor table with percentage shares.
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "40.0%")
	assert.Contains(t, out, "Top contributor: alice with 60 commits")

	// Index counts from the seeded store: 2 commits, 1 PR, 1 code chunk.
	assert.Contains(t, out, "Indexed Commits: 2")
	assert.Contains(t, out, "Indexed Pull Requests: 1")
	assert.Contains(t, out, "Code Chunks: 1")
	assert.Contains(t, out, "Total Documents: 4")

	assert.Contains(t, out, "GitHub URL: https://github.com/octo/widgets")
}

func TestRepositoryStatsPopularityBuckets(t *testing.T) {
	for _, tc := range []struct {
		stars int
		want  string
	}{
		{stars: 20000, want: "Highly popular project (top tier)"},
		{stars: 5000, want: "Well-established project"},
		{stars: 500, want: "Growing project"},
		{stars: 12, want: "Early stage or niche project"},
	} {
		t.Run(fmt.Sprintf("%d_stars", tc.stars), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/octo/widgets", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprintf(w, `{"full_name": "octo/widgets", "stargazers_count": %d}`, tc.stars)
			})
			mux.HandleFunc("GET /repos/octo/widgets/contributors", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `[]`)
			})
			ts := newTestToolset(t, mux)

			out, err := ts.repositoryStats(context.Background())
			require.NoError(t, err)
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestRepositoryStatsContributorsUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/widgets", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"full_name": "octo/widgets"}`)
	})
	mux.HandleFunc("GET /repos/octo/widgets/contributors", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "boom"}`, http.StatusInternalServerError)
	})
	ts := newTestToolset(t, mux)

	out, err := ts.repositoryStats(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Could not fetch contributors")
}

func TestRepositoryStatsRepoFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/widgets", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})
	ts := newTestToolset(t, mux)

	_, err := ts.repositoryStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching repository octo/widgets")
}
