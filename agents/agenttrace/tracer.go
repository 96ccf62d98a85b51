/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// Tracer creates traces and receives them when they complete.
type Tracer[T any] interface {
	// NewTrace starts a trace for the given prompt.
	NewTrace(ctx context.Context, prompt string) *Trace[T]

	// RecordTrace is invoked by Trace.Complete.
	RecordTrace(trace *Trace[T])
}

// TraceCallback receives a completed trace.
type TraceCallback[T any] func(trace *Trace[T])

type byCodeTracer[T any] struct {
	callbacks []TraceCallback[T]
}

// ByCode builds a tracer that invokes the given callbacks on completion.
func ByCode[T any](callbacks ...TraceCallback[T]) Tracer[T] {
	return &byCodeTracer[T]{callbacks: callbacks}
}

func (t *byCodeTracer[T]) NewTrace(ctx context.Context, prompt string) *Trace[T] {
	return newTraceWithTracer[T](ctx, t, prompt)
}

func (t *byCodeTracer[T]) RecordTrace(trace *Trace[T]) {
	for _, cb := range t.callbacks {
		cb(trace)
	}
}

// NewDefaultTracer returns a tracer that logs completed traces.
func NewDefaultTracer[T any](ctx context.Context) Tracer[T] {
	logger := clog.FromContext(ctx)
	return ByCode[T](func(trace *Trace[T]) {
		logger.With(
			"trace_id", trace.ID,
			"duration_ms", trace.Duration().Milliseconds(),
			"tool_calls", len(trace.ToolCalls),
		).Info("Agent trace completed", "trace", trace.String())
	})
}

type tracerKey[T any] struct{}

// WithTracer registers a tracer for result type T on the context.
func WithTracer[T any](ctx context.Context, tracer Tracer[T]) context.Context {
	return context.WithValue(ctx, tracerKey[T]{}, tracer)
}

// TracerFromContext returns the registered tracer for T, or a default
// logging tracer when none is registered.
func TracerFromContext[T any](ctx context.Context) Tracer[T] {
	if v := ctx.Value(tracerKey[T]{}); v != nil {
		if tracer, ok := v.(Tracer[T]); ok {
			return tracer
		}
	}
	return NewDefaultTracer[T](ctx)
}

// StartTrace starts a trace using the tracer registered on the context.
func StartTrace[T any](ctx context.Context, prompt string) *Trace[T] {
	return TracerFromContext[T](ctx).NewTrace(ctx, prompt)
}
