/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ingest turns repository snapshots into embedded documents in the
// vector index.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/repolens/embed"
	"chainguard.dev/repolens/githubfetch"
	"chainguard.dev/repolens/vectorstore"
	"github.com/chainguard-dev/clog"
)

// Document types written to the index.
const (
	TypeCommit = "commit"
	TypePR     = "pr"
	TypeCode   = "code"
)

// Processor synthesizes documents from a snapshot, embeds them, and writes
// them to a vector store.
type Processor struct {
	engine  embed.Engine
	chunker Chunker
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithChunker overrides the default chunking parameters.
func WithChunker(c Chunker) ProcessorOption {
	return func(p *Processor) {
		p.chunker = c
	}
}

// NewProcessor creates a Processor using the given embedding engine.
func NewProcessor(engine embed.Engine, opts ...ProcessorOption) *Processor {
	p := &Processor{
		engine:  engine,
		chunker: DefaultChunker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build replaces the store's contents with documents synthesized from the
// snapshot. It returns the number of documents indexed.
func (p *Processor) Build(ctx context.Context, snap *githubfetch.Snapshot, store *vectorstore.Store) (int, error) {
	log := clog.FromContext(ctx).With("repo", snap.FullName())

	// Indexing replaces any previous index for this repository.
	if err := store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("resetting index: %w", err)
	}

	docs := p.Synthesize(snap)
	if len(docs) == 0 {
		log.Warn("Snapshot produced no documents")
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vecs, err := p.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}

	if err := store.AddBatch(ctx, docs, vecs); err != nil {
		return 0, fmt.Errorf("storing %d documents: %w", len(docs), err)
	}

	log.Infof("Indexed %d documents (%d commits, %d PRs, %d files)",
		len(docs), len(snap.Commits), len(snap.PullRequests), len(snap.Files))
	return len(docs), nil
}

// Synthesize converts a snapshot into index documents: one per commit, one
// per pull request, and one per file chunk.
func (p *Processor) Synthesize(snap *githubfetch.Snapshot) []vectorstore.Document {
	var docs []vectorstore.Document

	for _, c := range snap.Commits {
		docs = append(docs, vectorstore.Document{
			Content: fmt.Sprintf("Commit: %s\nAuthor: %s\nFiles: %s",
				c.Message, c.Author, strings.Join(c.FilesChanged, ", ")),
			Type: TypeCommit,
			Metadata: map[string]any{
				"sha":       c.SHA,
				"date":      c.Date.Format(time.RFC3339),
				"author":    c.Author,
				"additions": c.Additions,
				"deletions": c.Deletions,
			},
		})
	}

	for _, pr := range snap.PullRequests {
		docs = append(docs, vectorstore.Document{
			Content: fmt.Sprintf("PR #%d: %s\n%s\nFiles changed: %s",
				pr.Number, pr.Title, pr.Body, strings.Join(pr.Files, ", ")),
			Type: TypePR,
			Metadata: map[string]any{
				"number": pr.Number,
				"state":  pr.State,
				"date":   pr.CreatedAt.Format(time.RFC3339),
				"author": pr.Author,
			},
		})
	}

	for _, f := range snap.Files {
		chunks := p.chunker.Split(f.Content)
		for i, chunk := range chunks {
			docs = append(docs, vectorstore.Document{
				Content: chunk,
				Type:    TypeCode,
				Metadata: map[string]any{
					"file_path":    f.Path,
					"chunk_index":  i,
					"total_chunks": len(chunks),
					"file_size":    f.Size,
				},
			})
		}
	}
	return docs
}
