/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubfetch

import "time"

// Commit is a single commit with the metadata we index.
type Commit struct {
	SHA          string    `json:"sha"`
	Message      string    `json:"message"`
	Author       string    `json:"author"`
	Date         time.Time `json:"date"`
	FilesChanged []string  `json:"files_changed"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
}

// PullRequest is a pull request with its files and review comments.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	Author    string     `json:"author"`
	Files     []string   `json:"files"`
	Comments  []string   `json:"comments"`
}

// File is a source file from the repository's default branch.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// Snapshot is a bounded view of a repository's history and contents.
type Snapshot struct {
	Owner        string        `json:"owner"`
	Repo         string        `json:"repo"`
	Commits      []Commit      `json:"commits"`
	PullRequests []PullRequest `json:"pull_requests"`
	Files        []File        `json:"files"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// FullName returns the repository's "owner/repo" identifier.
func (s *Snapshot) FullName() string {
	return s.Owner + "/" + s.Repo
}
