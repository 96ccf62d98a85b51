/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package embed turns text into dense vectors for similarity search.
package embed

import "context"

// Engine produces embedding vectors for text. Implementations must return
// vectors of exactly Dimensions() elements.
type Engine interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the width of vectors this engine produces.
	Dimensions() int
}
