/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/repolens/agents/executor/retry"
	"github.com/openai/openai-go"
)

const (
	// defaultModel is the embedding model used unless overridden.
	defaultModel = openai.EmbeddingModelTextEmbedding3Small

	// defaultDimensions is the vector width of text-embedding-3-small.
	defaultDimensions = 1536

	// maxBatchSize caps how many inputs go into a single API call.
	maxBatchSize = 128
)

// OpenAI is an Engine backed by the OpenAI embeddings API.
type OpenAI struct {
	client      openai.Client
	model       openai.EmbeddingModel
	dimensions  int
	retryConfig retry.RetryConfig
}

// OpenAIOption configures an OpenAI engine.
type OpenAIOption func(*OpenAI)

// WithModel overrides the embedding model and its vector width.
func WithModel(model openai.EmbeddingModel, dimensions int) OpenAIOption {
	return func(e *OpenAI) {
		e.model = model
		e.dimensions = dimensions
	}
}

// WithRetryConfig overrides the backoff used for transient API errors.
func WithRetryConfig(cfg retry.RetryConfig) OpenAIOption {
	return func(e *OpenAI) {
		e.retryConfig = cfg
	}
}

// NewOpenAI creates an embedding engine around the given client.
func NewOpenAI(client openai.Client, opts ...OpenAIOption) *OpenAI {
	e := &OpenAI{
		client:      client,
		model:       defaultModel,
		dimensions:  defaultDimensions,
		retryConfig: retry.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions implements Engine.
func (e *OpenAI) Dimensions() int {
	return e.dimensions
}

// Embed implements Engine.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Engine. Inputs beyond the per-call batch cap are
// split across multiple API calls; outputs line up with inputs.
func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		batch := texts[start:min(start+maxBatchSize, len(texts))]

		resp, err := retry.RetryWithBackoff(ctx, e.retryConfig, "create_embeddings", isRetryableOpenAIError,
			func() (*openai.CreateEmbeddingResponse, error) {
				return e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
					Model: e.model,
					Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
				})
			})
		if err != nil {
			return nil, fmt.Errorf("embedding batch at offset %d: %w", start, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embedding batch at offset %d: got %d vectors for %d inputs", start, len(resp.Data), len(batch))
		}

		for _, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float32(v)
			}
			if len(vec) != e.dimensions {
				return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), e.dimensions)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

// isRetryableOpenAIError reports whether the error is a rate limit or
// transient server error worth retrying.
func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
