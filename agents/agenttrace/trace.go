/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.ai.repolens.agenttrace"

// ReasoningContent is an internal reasoning block emitted by the model.
type ReasoningContent struct {
	Thinking string `json:"thinking"`
}

// ToolCall is a single tool invocation within a trace.
type ToolCall[T any] struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	trace *Trace[T]
	mu    sync.Mutex
	span  oteltrace.Span
}

// Trace is a complete agent interaction from prompt to result.
type Trace[T any] struct {
	ID          string             `json:"id"`
	InputPrompt string             `json:"input_prompt"`
	ExecContext ExecutionContext   `json:"exec_context,omitempty"`
	ToolCalls   []*ToolCall[T]     `json:"tool_calls"`
	Reasoning   []ReasoningContent `json:"reasoning,omitempty"`
	Result      T                  `json:"result"`
	Error       error              `json:"error,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`

	tracer Tracer[T]
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

func newTraceWithTracer[T any](ctx context.Context, tracer Tracer[T], prompt string) *Trace[T] {
	execCtx := GetExecutionContext(ctx)

	tr := otel.Tracer(instrumentationName)
	opts := []oteltrace.SpanStartOption{
		oteltrace.WithAttributes(attribute.Int("agent.prompt_length", len(prompt))),
	}
	if execCtx.Repository != "" {
		opts = append(opts, oteltrace.WithAttributes(attribute.String("repository", execCtx.Repository)))
	}
	if execCtx.Operation != "" {
		opts = append(opts, oteltrace.WithAttributes(attribute.String("operation", execCtx.Operation)))
	}
	ctx, span := tr.Start(ctx, "agent.execution", opts...)

	return &Trace[T]{
		ID:          generateTraceID(),
		InputPrompt: prompt,
		ExecContext: execCtx,
		ToolCalls:   []*ToolCall[T]{},
		StartTime:   time.Now(),
		tracer:      tracer,
		ctx:         ctx,
		span:        span,
	}
}

// StartToolCall opens a tool-call span; callers finish it with Complete.
func (t *Trace[T]) StartToolCall(id, name string, params map[string]any) *ToolCall[T] {
	tr := otel.Tracer(instrumentationName)
	_, span := tr.Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))

	return &ToolCall[T]{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		span:      span,
	}
}

// RecordTokenUsage attaches model and token counts to the execution span.
func (t *Trace[T]) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", inputTokens),
			attribute.Int64("tokens.output", outputTokens),
			attribute.Int64("tokens.total", inputTokens+outputTokens),
		)
	}
}

// BadToolCall records a tool call that failed before it could execute:
// unknown tool name or malformed arguments.
func (t *Trace[T]) BadToolCall(id, name string, params map[string]any, err error) {
	tr := otel.Tracer(instrumentationName)
	_, span := tr.Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
		attribute.String("error", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	now := time.Now()
	tc := &ToolCall[T]{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: now,
		EndTime:   now,
		Error:     err,
		trace:     t,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, tc)
}

// Complete finishes the tool call and appends it to the parent trace.
func (tc *ToolCall[T]) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	trace := tc.trace
	span := tc.span
	tc.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.ToolCalls = append(trace.ToolCalls, tc)
}

// Duration returns how long the tool call took (so far, if still running).
func (tc *ToolCall[T]) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete finishes the trace and hands it to the tracer for recording.
func (t *Trace[T]) Complete(result T, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tracer := t.tracer
	span := t.span
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	tracer.RecordTrace(t)
}

// Duration returns the total duration of the trace.
func (t *Trace[T]) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String renders the trace for logs. Long results are truncated.
func (t *Trace[T]) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var duration time.Duration
	if t.EndTime.IsZero() {
		duration = time.Since(t.StartTime)
	} else {
		duration = t.EndTime.Sub(t.StartTime)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Duration: %v\n", duration)

	if len(t.Reasoning) > 0 {
		fmt.Fprintf(&sb, "Reasoning blocks: %d\n", len(t.Reasoning))
	}

	if len(t.ToolCalls) == 0 {
		sb.WriteString("No tool calls\n")
	} else {
		fmt.Fprintf(&sb, "Tool calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			var tcDuration time.Duration
			if tc.EndTime.IsZero() {
				tcDuration = time.Since(tc.StartTime)
			} else {
				tcDuration = tc.EndTime.Sub(tc.StartTime)
			}
			fmt.Fprintf(&sb, "  [%d] %s (%v)", i+1, tc.Name, tcDuration)
			if tc.Error != nil {
				fmt.Fprintf(&sb, " error: %v", tc.Error)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("Completion: ")
	switch {
	case t.Error != nil:
		fmt.Fprintf(&sb, "error: %v\n", t.Error)
	default:
		resultStr := fmt.Sprintf("%v", t.Result)
		if len(resultStr) > 500 {
			resultStr = resultStr[:497] + "..."
		}
		fmt.Fprintf(&sb, "%s\n", resultStr)
	}

	return sb.String()
}

func generateTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102-150405.000000")
	}
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(b))
}
