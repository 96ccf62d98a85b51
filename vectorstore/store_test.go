/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package vectorstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"), 3)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedDocuments(t *testing.T, s *Store) {
	t.Helper()
	docs := []Document{
		{Content: "Commit: Add parser", Type: "commit", Metadata: map[string]any{"sha": "aaa111"}},
		{Content: "PR #7: Parser rewrite", Type: "pr", Metadata: map[string]any{"number": float64(7)}},
		{Content: "func Parse(input string)", Type: "code"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	if err := s.AddBatch(context.Background(), docs, embeddings); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	s := newTestStore(t)
	seedDocuments(t, s)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2, "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if got, want := results[0].Content, "Commit: Add parser"; got != want {
		t.Errorf("results[0].Content = %q, want %q", got, want)
	}
	if got, want := results[1].Content, "func Parse(input string)"; got != want {
		t.Errorf("results[1].Content = %q, want %q", got, want)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("results not ordered by similarity: %v < %v", results[0].Similarity, results[1].Similarity)
	}
	if diff := cmp.Diff(map[string]any{"sha": "aaa111"}, results[0].Metadata); diff != "" {
		t.Errorf("results[0].Metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchWithTypeFilter(t *testing.T) {
	s := newTestStore(t)
	seedDocuments(t, s)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5, "pr")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if got, want := results[0].Type, "pr"; got != want {
		t.Errorf("results[0].Type = %q, want %q", got, want)
	}
}

func TestSearchBruteForceMatchesVec(t *testing.T) {
	s := newTestStore(t)
	seedDocuments(t, s)

	results, err := s.searchBruteForce(context.Background(), []float32{1, 0, 0}, 2, "")
	if err != nil {
		t.Fatalf("searchBruteForce() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if got, want := results[0].Content, "Commit: Add parser"; got != want {
		t.Errorf("results[0].Content = %q, want %q", got, want)
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-6 {
		t.Errorf("results[0].Similarity = %v, want ~1.0", results[0].Similarity)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Search(context.Background(), []float32{1, 0}, 5, ""); err == nil {
		t.Fatal("Search() error = nil, want dimension mismatch")
	}
}

func TestAddBatchDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	err := s.AddBatch(context.Background(),
		[]Document{{Content: "x", Type: "code"}},
		[][]float32{{1, 0}})
	if err == nil {
		t.Fatal("AddBatch() error = nil, want dimension mismatch")
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	seedDocuments(t, s)

	total, err := s.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 3 {
		t.Errorf("Count(\"\") = %d, want 3", total)
	}

	commits, err := s.Count(context.Background(), "commit")
	if err != nil {
		t.Fatalf("Count(commit) error = %v", err)
	}
	if commits != 1 {
		t.Errorf("Count(commit) = %d, want 1", commits)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	seedDocuments(t, s)

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	total, err := s.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("Count() after Reset error = %v", err)
	}
	if total != 0 {
		t.Errorf("Count() after Reset = %d, want 0", total)
	}

	// The store remains usable after a reset.
	if err := s.Add(context.Background(), Document{Content: "y", Type: "code"}, []float32{0, 0, 1}); err != nil {
		t.Fatalf("Add() after Reset error = %v", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.125, 0}
	out := decodeVector(encodeVector(in))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCosineSimilarity(t *testing.T) {
	for _, tc := range []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cosineSimilarity(tc.a, tc.b)
			if tc.wantErr {
				if err == nil {
					t.Fatal("cosineSimilarity() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("cosineSimilarity() error = %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tc.want)
			}
		})
	}
}
