/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"os"
	"testing"

	"chainguard.dev/repolens/ingest"
	"chainguard.dev/repolens/repoagent"
	"chainguard.dev/repolens/vectorstore"
)

type constEngine struct{}

func (constEngine) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (constEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (constEngine) Dimensions() int { return 3 }

func newTestPipeline(t *testing.T) *pipeline {
	t.Helper()
	return newPipeline(nil, constEngine{}, nil, nil, t.TempDir(), repoagent.Config{})
}

func seedStore(t *testing.T, ctx context.Context, store *vectorstore.Store) {
	t.Helper()
	doc := vectorstore.Document{
		Content:  "Commit: Rewrite the parser",
		Type:     ingest.TypeCommit,
		Metadata: map[string]any{"author": "Ada"},
	}
	if err := store.AddBatch(ctx, []vectorstore.Document{doc}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
}

func TestOpenStoreKeepsPreviousGenerationServing(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)

	first, firstPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	seedStore(t, ctx, first)
	p.swapStore(ctx, "octo", "widgets", first, firstPath)

	// A rebuild opens its own generation; the registered store must keep
	// answering searches while the rebuild runs.
	second, secondPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() second generation error = %v", err)
	}
	defer second.Close()

	if firstPath == secondPath {
		t.Fatalf("generations share a database file: %s", firstPath)
	}

	results, err := first.Search(ctx, []float32{1, 0, 0}, 5, ingest.TypeCommit)
	if err != nil {
		t.Fatalf("Search() on previous generation error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() on previous generation = %d results, want 1", len(results))
	}
}

func TestSwapStoreRetiresPreviousGeneration(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)

	first, firstPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	seedStore(t, ctx, first)
	p.swapStore(ctx, "octo", "widgets", first, firstPath)

	second, secondPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() second generation error = %v", err)
	}
	seedStore(t, ctx, second)
	p.swapStore(ctx, "octo", "widgets", second, secondPath)

	if _, err := first.Search(ctx, []float32{1, 0, 0}, 5, ingest.TypeCommit); err == nil {
		t.Error("Search() on retired generation succeeded, want closed-database error")
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("retired generation file still present: %s", firstPath)
	}

	results, err := second.Search(ctx, []float32{1, 0, 0}, 5, ingest.TypeCommit)
	if err != nil {
		t.Fatalf("Search() on current generation error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() on current generation = %d results, want 1", len(results))
	}
}

func TestDiscardStoreLeavesRegisteredGenerationAlone(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t)

	registered, registeredPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	seedStore(t, ctx, registered)
	p.swapStore(ctx, "octo", "widgets", registered, registeredPath)

	// A failed rebuild discards only its own generation.
	failed, failedPath, err := p.openStore(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	p.discardStore(ctx, failed, failedPath)

	if _, err := os.Stat(failedPath); !os.IsNotExist(err) {
		t.Errorf("discarded generation file still present: %s", failedPath)
	}
	results, err := registered.Search(ctx, []float32{1, 0, 0}, 5, ingest.TypeCommit)
	if err != nil {
		t.Fatalf("Search() on registered generation error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() on registered generation = %d results, want 1", len(results))
	}
}
