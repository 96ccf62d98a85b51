/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubfetch

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Limits bounds how much of a repository a single Snapshot call pulls.
type Limits struct {
	// MaxCommits is the number of most-recent commits fetched.
	MaxCommits int
	// MaxFilesPerCommit caps the changed-file list recorded per commit.
	MaxFilesPerCommit int
	// MaxPullRequests is the number of most-recently-created PRs fetched.
	MaxPullRequests int
	// MaxFilesPerPR caps the changed-file list recorded per PR.
	MaxFilesPerPR int
	// MaxCommentsPerPR caps the review comments recorded per PR.
	MaxCommentsPerPR int
	// MaxFiles caps the total number of files fetched from the tree.
	MaxFiles int
	// MaxFileSize skips any file larger than this many bytes.
	MaxFileSize int
}

// DefaultLimits returns the standard snapshot bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxCommits:        50,
		MaxFilesPerCommit: 10,
		MaxPullRequests:   100,
		MaxFilesPerPR:     30,
		MaxCommentsPerPR:  10,
		MaxFiles:          500,
		MaxFileSize:       100_000,
	}
}

// binaryExtensions are file suffixes we never fetch content for.
var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".pdf": {}, ".zip": {}, ".exe": {},
}

// Fetcher pulls bounded repository snapshots from the GitHub API.
type Fetcher struct {
	client *github.Client
	limits Limits
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLimits overrides the default snapshot bounds.
func WithLimits(l Limits) Option {
	return func(f *Fetcher) {
		f.limits = l
	}
}

// New creates a Fetcher authenticated with the given token. An empty token
// yields an unauthenticated client, subject to much lower rate limits.
func New(ctx context.Context, token string, opts ...Option) *Fetcher {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return NewFromClient(github.NewClient(hc), opts...)
}

// NewFromClient creates a Fetcher around an existing GitHub client.
func NewFromClient(client *github.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot fetches commits, pull requests, and files concurrently. Each
// category is best-effort: a failure there logs a warning and contributes
// whatever was fetched before the failure. Only failing to resolve the
// repository itself fails the call.
func (f *Fetcher) Snapshot(ctx context.Context, owner, repo string) (*Snapshot, error) {
	log := clog.FromContext(ctx).With("owner", owner, "repo", repo)

	if _, _, err := f.client.Repositories.Get(ctx, owner, repo); err != nil {
		return nil, fmt.Errorf("resolving repository %s/%s: %w", owner, repo, err)
	}

	snap := &Snapshot{
		Owner:     owner,
		Repo:      repo,
		FetchedAt: time.Now(),
	}

	// The three tasks write disjoint fields, so no locking is needed.
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		commits, err := f.fetchCommits(gctx, owner, repo)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Warnf("Fetching commits: %v", err)
		}
		snap.Commits = commits
		return nil
	})
	eg.Go(func() error {
		prs, err := f.fetchPullRequests(gctx, owner, repo)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Warnf("Fetching pull requests: %v", err)
		}
		snap.PullRequests = prs
		return nil
	})
	eg.Go(func() error {
		files, err := f.fetchFiles(gctx, owner, repo)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			log.Warnf("Fetching files: %v", err)
		}
		snap.Files = files
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Infof("Fetched %d commits, %d pull requests, %d files",
		len(snap.Commits), len(snap.PullRequests), len(snap.Files))
	return snap, nil
}

// fetchCommits lists the most recent commits and resolves each one for its
// changed files and line stats. Per-commit errors skip that commit.
func (f *Fetcher) fetchCommits(ctx context.Context, owner, repo string) ([]Commit, error) {
	log := clog.FromContext(ctx)

	commits := make([]Commit, 0, f.limits.MaxCommits)
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: min(f.limits.MaxCommits, 100)},
	}
	for {
		page, resp, err := f.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return commits, fmt.Errorf("listing commits: %w", err)
		}
		for _, rc := range page {
			if len(commits) >= f.limits.MaxCommits {
				return commits, nil
			}
			detail, _, err := f.client.Repositories.GetCommit(ctx, owner, repo, rc.GetSHA(), nil)
			if err != nil {
				log.Warnf("Skipping commit %.7s: %v", rc.GetSHA(), err)
				continue
			}
			commits = append(commits, convertCommit(detail, f.limits.MaxFilesPerCommit))
		}
		if resp.NextPage == 0 || len(commits) >= f.limits.MaxCommits {
			return commits, nil
		}
		opts.Page = resp.NextPage
	}
}

func convertCommit(rc *github.RepositoryCommit, maxFiles int) Commit {
	c := Commit{
		SHA:       rc.GetSHA(),
		Message:   rc.GetCommit().GetMessage(),
		Author:    "Unknown",
		Date:      time.Now(),
		Additions: rc.GetStats().GetAdditions(),
		Deletions: rc.GetStats().GetDeletions(),
	}
	if a := rc.GetCommit().GetAuthor(); a != nil {
		if a.GetName() != "" {
			c.Author = a.GetName()
		}
		if d := a.GetDate(); !d.IsZero() {
			c.Date = d.Time
		}
	}
	for i, cf := range rc.Files {
		if i >= maxFiles {
			break
		}
		c.FilesChanged = append(c.FilesChanged, cf.GetFilename())
	}
	return c
}

// fetchPullRequests lists the most recently created PRs in any state and
// resolves each one's changed files and review comments. File and comment
// lookups are best-effort per PR.
func (f *Fetcher) fetchPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	prs := make([]PullRequest, 0, f.limits.MaxPullRequests)
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: min(f.limits.MaxPullRequests, 100)},
	}
	for {
		page, resp, err := f.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return prs, fmt.Errorf("listing pull requests: %w", err)
		}
		for _, pr := range page {
			if len(prs) >= f.limits.MaxPullRequests {
				return prs, nil
			}
			prs = append(prs, f.convertPullRequest(ctx, owner, repo, pr))
		}
		if resp.NextPage == 0 || len(prs) >= f.limits.MaxPullRequests {
			return prs, nil
		}
		opts.Page = resp.NextPage
	}
}

func (f *Fetcher) convertPullRequest(ctx context.Context, owner, repo string, pr *github.PullRequest) PullRequest {
	out := PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pr.GetState(),
		CreatedAt: pr.GetCreatedAt().Time,
		Author:    "Unknown",
	}
	if u := pr.GetUser(); u != nil && u.GetLogin() != "" {
		out.Author = u.GetLogin()
	}
	if m := pr.GetMergedAt(); !m.IsZero() {
		t := m.Time
		out.MergedAt = &t
	}

	files, _, err := f.client.PullRequests.ListFiles(ctx, owner, repo, out.Number,
		&github.ListOptions{PerPage: f.limits.MaxFilesPerPR})
	if err == nil {
		for i, cf := range files {
			if i >= f.limits.MaxFilesPerPR {
				break
			}
			out.Files = append(out.Files, cf.GetFilename())
		}
	}

	comments, _, err := f.client.PullRequests.ListComments(ctx, owner, repo, out.Number,
		&github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: f.limits.MaxCommentsPerPR}})
	if err == nil {
		for i, cm := range comments {
			if i >= f.limits.MaxCommentsPerPR {
				break
			}
			out.Comments = append(out.Comments, cm.GetBody())
		}
	}
	return out
}

// fetchFiles walks the repository tree breadth-first from the root,
// fetching file contents until MaxFiles is reached. Large files, binary
// extensions, and undecodable contents are skipped.
func (f *Fetcher) fetchFiles(ctx context.Context, owner, repo string) ([]File, error) {
	log := clog.FromContext(ctx)

	var files []File
	queue := []string{""}
	for len(queue) > 0 && len(files) < f.limits.MaxFiles {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		p := queue[0]
		queue = queue[1:]

		fc, dir, _, err := f.client.Repositories.GetContents(ctx, owner, repo, p, nil)
		if err != nil {
			if p == "" {
				return files, fmt.Errorf("listing repository root: %w", err)
			}
			log.Warnf("Skipping %s: %v", p, err)
			continue
		}

		switch {
		case dir != nil:
			for _, entry := range dir {
				switch entry.GetType() {
				case "dir":
					queue = append(queue, entry.GetPath())
				case "file":
					if entry.GetSize() > f.limits.MaxFileSize {
						log.Debugf("Skipping large file %s (%d bytes)", entry.GetPath(), entry.GetSize())
						continue
					}
					if isBinaryPath(entry.GetPath()) {
						continue
					}
					queue = append(queue, entry.GetPath())
				}
			}

		case fc != nil:
			content, err := fc.GetContent()
			if err != nil || !utf8.ValidString(content) {
				log.Debugf("Skipping binary file %s", fc.GetPath())
				continue
			}
			files = append(files, File{
				Path:    fc.GetPath(),
				Content: content,
				Size:    fc.GetSize(),
			})
		}
	}
	return files, nil
}

func isBinaryPath(p string) bool {
	_, ok := binaryExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
