/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chainguard.dev/repolens/embed"
	"chainguard.dev/repolens/githubfetch"
	"chainguard.dev/repolens/httpapi"
	"chainguard.dev/repolens/ingest"
	"chainguard.dev/repolens/repoagent"
	"chainguard.dev/repolens/repotools"
	"chainguard.dev/repolens/vectorstore"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// indexedStore pairs an open vector store with its on-disk location so a
// superseded generation can be closed and removed after the swap.
type indexedStore struct {
	store *vectorstore.Store
	path  string
}

// pipeline implements httpapi.Indexer: fetch, embed, store, and wrap the
// repository in a ready agent.
type pipeline struct {
	fetcher  *githubfetch.Fetcher
	engine   embed.Engine
	gh       *github.Client
	ghv4     *githubv4.Client
	dataDir  string
	agentCfg repoagent.Config

	// mu guards gens and stores. Each indexing run writes a fresh
	// generation file; the previous generation keeps serving queries
	// until the replacement agent is ready.
	mu     sync.Mutex
	gens   map[string]int
	stores map[string]indexedStore
}

func newPipeline(fetcher *githubfetch.Fetcher, engine embed.Engine, gh *github.Client, ghv4 *githubv4.Client, dataDir string, agentCfg repoagent.Config) *pipeline {
	return &pipeline{
		fetcher:  fetcher,
		engine:   engine,
		gh:       gh,
		ghv4:     ghv4,
		dataDir:  dataDir,
		agentCfg: agentCfg,
		gens:     make(map[string]int),
		stores:   make(map[string]indexedStore),
	}
}

// Index implements httpapi.Indexer.
func (p *pipeline) Index(ctx context.Context, owner, repo string, progress func(message string, percent int)) (httpapi.Agent, error) {
	log := clog.FromContext(ctx).With("repository", owner+"/"+repo)

	progress("Fetching repository data...", 20)
	snap, err := p.fetcher.Snapshot(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository: %w", err)
	}

	progress("Processing and embedding documents...", 60)
	store, path, err := p.openStore(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	count, err := ingest.NewProcessor(p.engine).Build(ctx, snap, store)
	if err != nil {
		p.discardStore(ctx, store, path)
		return nil, fmt.Errorf("building index: %w", err)
	}
	log.With("documents", count).Info("Index built")

	progress("Initializing agent...", 90)
	var opts []repotools.Option
	if p.ghv4 != nil {
		opts = append(opts, repotools.WithGraphQLClient(p.ghv4))
	}
	tools := repotools.New(owner, repo, store, p.engine, p.gh, opts...)
	agent, err := repoagent.New(ctx, p.agentCfg, tools)
	if err != nil {
		p.discardStore(ctx, store, path)
		return nil, fmt.Errorf("initializing agent: %w", err)
	}

	// The previous generation served /query throughout the rebuild; close
	// it only now that the replacement agent is ready.
	p.swapStore(ctx, owner, repo, store, path)
	return agent, nil
}

// openStore opens a fresh generation of the repository's vector database
// without touching the generation currently in use.
func (p *pipeline) openStore(ctx context.Context, owner, repo string) (*vectorstore.Store, string, error) {
	key := owner + "/" + repo

	p.mu.Lock()
	p.gens[key]++
	gen := p.gens[key]
	p.mu.Unlock()

	path := filepath.Join(p.dataDir, fmt.Sprintf("%s__%s.%d.db", owner, repo, gen))
	// A stale file left by a previous process run would pollute the
	// fresh index.
	_ = os.Remove(path)

	store, err := vectorstore.Open(ctx, path, p.engine.Dimensions())
	if err != nil {
		return nil, "", err
	}
	return store, path, nil
}

// swapStore records the freshly built store for the repository and retires
// the superseded generation. Searches already running against the old store
// drain before its Close returns.
func (p *pipeline) swapStore(ctx context.Context, owner, repo string, store *vectorstore.Store, path string) {
	key := owner + "/" + repo

	p.mu.Lock()
	prev, hadPrev := p.stores[key]
	p.stores[key] = indexedStore{store: store, path: path}
	p.mu.Unlock()

	if hadPrev {
		p.discardStore(ctx, prev.store, prev.path)
	}
}

// discardStore closes a store that lost its indexing run or was superseded,
// and removes its database file.
func (p *pipeline) discardStore(ctx context.Context, store *vectorstore.Store, path string) {
	log := clog.FromContext(ctx).With("store", path)
	if err := store.Close(); err != nil {
		log.With("error", err).Warn("Failed to close vector store")
	}
	if err := os.Remove(path); err != nil {
		log.With("error", err).Warn("Failed to remove vector store file")
	}
}
