/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package vectorstore is an embedded vector index on SQLite + sqlite-vec.
// Each indexed repository gets its own database file holding documents and
// their embeddings; nearest-neighbor search uses cosine distance via the
// vec0 virtual table, with a brute-force scan as fallback when the
// extension is unavailable.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	_ "github.com/mattn/go-sqlite3"
)

// Document is one indexed unit of repository history.
type Document struct {
	ID        int64          `json:"id"`
	Content   string         `json:"content"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Result is a document with its similarity to a query vector.
// Similarity is 1 - cosine distance, so higher is closer.
type Result struct {
	Document
	Similarity float64 `json:"similarity"`
}

// Store is a single repository's vector index.
type Store struct {
	db         *sql.DB
	dimensions int

	mu sync.RWMutex

	// vecAvailable records whether the vec0 virtual table could be
	// created. Without it, searches fall back to a brute-force scan.
	vecAvailable bool
}

// Open opens (or creates) the index at path with the given vector width.
func Open(ctx context.Context, path string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid vector dimensions %d", dimensions)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verifying database %s: %w", path, err)
	}

	s := &Store{
		db:         db,
		dimensions: dimensions,
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	// The embedding blob lives in the documents table as well so that
	// brute-force search works without the vec extension.
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			metadata TEXT,
			embedding BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type);
	`); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	vecTable := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(embedding float[%d])`,
		s.dimensions)
	if _, err := s.db.ExecContext(ctx, vecTable); err != nil {
		clog.FromContext(ctx).Warnf("vec0 table unavailable, falling back to brute-force search: %v", err)
		s.vecAvailable = false
		return nil
	}
	s.vecAvailable = true
	return nil
}

// Add stores a single document with its embedding.
func (s *Store) Add(ctx context.Context, doc Document, embedding []float32) error {
	return s.AddBatch(ctx, []Document{doc}, [][]float32{embedding})
}

// AddBatch stores documents and their embeddings in one transaction.
func (s *Store) AddBatch(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("got %d documents but %d embeddings", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, doc := range docs {
		if len(embeddings[i]) != s.dimensions {
			return fmt.Errorf("document %d: embedding has %d dimensions, want %d", i, len(embeddings[i]), s.dimensions)
		}

		var metaJSON []byte
		if doc.Metadata != nil {
			metaJSON, err = json.Marshal(doc.Metadata)
			if err != nil {
				return fmt.Errorf("document %d: encoding metadata: %w", i, err)
			}
		}

		blob := encodeVector(embeddings[i])
		res, err := tx.ExecContext(ctx,
			`INSERT INTO documents (content, type, metadata, embedding) VALUES (?, ?, ?, ?)`,
			doc.Content, doc.Type, string(metaJSON), blob)
		if err != nil {
			return fmt.Errorf("document %d: inserting: %w", i, err)
		}

		if s.vecAvailable {
			rowid, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("document %d: resolving rowid: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_documents (rowid, embedding) VALUES (?, ?)`,
				rowid, blob); err != nil {
				return fmt.Errorf("document %d: inserting vector: %w", i, err)
			}
		}
	}
	return tx.Commit()
}

// Search returns the k nearest documents by cosine similarity. An empty
// docType matches all document types.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, docType string) ([]Result, error) {
	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("query embedding has %d dimensions, want %d", len(embedding), s.dimensions)
	}
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vecAvailable {
		results, err := s.searchVec(ctx, embedding, k, docType)
		if err == nil {
			return results, nil
		}
		clog.FromContext(ctx).Warnf("vec search failed, falling back to brute-force: %v", err)
	}
	return s.searchBruteForce(ctx, embedding, k, docType)
}

func (s *Store) searchVec(ctx context.Context, embedding []float32, k int, docType string) ([]Result, error) {
	query := `
		SELECT d.id, d.content, d.type, d.metadata, d.created_at,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_documents v
		JOIN documents d ON d.id = v.rowid`
	args := []any{encodeVector(embedding)}
	if docType != "" {
		query += ` WHERE d.type = ?`
		args = append(args, docType)
	}
	query += ` ORDER BY distance ASC LIMIT ?`
	args = append(args, k)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vec search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var metaJSON sql.NullString
		var distance float64
		if err := rows.Scan(&r.ID, &r.Content, &r.Type, &metaJSON, &r.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &r.Metadata); err != nil {
				clog.FromContext(ctx).Warnf("Skipping malformed metadata for document %d: %v", r.ID, err)
			}
		}
		r.Similarity = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) searchBruteForce(ctx context.Context, embedding []float32, k int, docType string) ([]Result, error) {
	query := `SELECT id, content, type, metadata, embedding, created_at FROM documents`
	var args []any
	if docType != "" {
		query += ` WHERE type = ?`
		args = append(args, docType)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var metaJSON sql.NullString
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Content, &r.Type, &metaJSON, &blob, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docVec := decodeVector(blob)
		sim, err := cosineSimilarity(embedding, docVec)
		if err != nil {
			clog.FromContext(ctx).Warnf("Skipping document %d: %v", r.ID, err)
			continue
		}
		if metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &r.Metadata); err != nil {
				clog.FromContext(ctx).Warnf("Skipping malformed metadata for document %d: %v", r.ID, err)
			}
		}
		r.Similarity = sim
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of documents, optionally filtered by type.
func (s *Store) Count(ctx context.Context, docType string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	var err error
	if docType == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE type = ?`, docType).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Reset drops and recreates the index, discarding all documents.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS documents`); err != nil {
		return fmt.Errorf("dropping documents table: %w", err)
	}
	if s.vecAvailable {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS vec_documents`); err != nil {
			return fmt.Errorf("dropping vector table: %w", err)
		}
	}
	return s.initSchema(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
