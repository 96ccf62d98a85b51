/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext carries request-level metadata for agent executions so
// traces and metrics can be grouped per repository and operation.
type ExecutionContext struct {
	// Repository is the "owner/repo" the agent is answering about.
	Repository string `json:"repository,omitempty"`
	// Operation is the API surface that triggered the execution ("query", "index").
	Operation string `json:"operation,omitempty"`
	// TurnNumber is the conversation turn for multi-turn sessions.
	TurnNumber int `json:"turn_number,omitempty"`
}

// EnrichAttributes appends bounded execution-context attributes to base.
// Repository cardinality is bounded by the number of indexed repos; free-form
// values such as the question text are deliberately excluded.
func (e ExecutionContext) EnrichAttributes(base []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(base), len(base)+3)
	copy(attrs, base)

	if e.Repository != "" {
		attrs = append(attrs, attribute.String("repository", e.Repository))
	}
	if e.Operation != "" {
		attrs = append(attrs, attribute.String("operation", e.Operation))
	}
	attrs = append(attrs, attribute.Int("turn", e.TurnNumber))
	return attrs
}

type contextKey string

const executionContextKey contextKey = "execution_context"

// WithExecutionContext stores execution metadata on the context.
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution metadata, zero when absent.
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if v := ctx.Value(executionContextKey); v != nil {
		if execCtx, ok := v.(ExecutionContext); ok {
			return execCtx
		}
	}
	return ExecutionContext{}
}
