/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/repolens/agents/agenttrace"
)

func TestTraceRecordsToolCalls(t *testing.T) {
	t.Parallel()

	var recorded *agenttrace.Trace[string]
	tracer := agenttrace.ByCode[string](func(tr *agenttrace.Trace[string]) {
		recorded = tr
	})
	ctx := agenttrace.WithTracer[string](context.Background(), tracer)

	trace := agenttrace.StartTrace[string](ctx, "what changed last week?")

	tc := trace.StartToolCall("call-1", "search_commits", map[string]any{"query": "last week"})
	tc.Complete(map[string]any{"hits": 3}, nil)

	trace.BadToolCall("call-2", "no_such_tool", nil, errors.New("unknown tool"))

	trace.Complete("answer", nil)

	if recorded == nil {
		t.Fatal("tracer callback not invoked")
	}
	if got := len(recorded.ToolCalls); got != 2 {
		t.Fatalf("got %d tool calls, want 2", got)
	}
	if recorded.ToolCalls[0].Name != "search_commits" {
		t.Errorf("first tool call name = %q", recorded.ToolCalls[0].Name)
	}
	if recorded.ToolCalls[1].Error == nil {
		t.Error("bad tool call should carry an error")
	}
	if recorded.Result != "answer" {
		t.Errorf("result = %q, want %q", recorded.Result, "answer")
	}
}

func TestTraceString(t *testing.T) {
	t.Parallel()

	trace := agenttrace.StartTrace[string](context.Background(), "prompt")
	tc := trace.StartToolCall("id", "get_timeline", nil)
	tc.Complete("ok", nil)
	trace.Complete("done", nil)

	s := trace.String()
	if !strings.Contains(s, "get_timeline") {
		t.Errorf("String() missing tool name: %s", s)
	}
	if !strings.Contains(s, "done") {
		t.Errorf("String() missing result: %s", s)
	}
}

func TestExecutionContextRoundTrip(t *testing.T) {
	t.Parallel()

	want := agenttrace.ExecutionContext{Repository: "octo/hello", Operation: "query", TurnNumber: 2}
	ctx := agenttrace.WithExecutionContext(context.Background(), want)
	if got := agenttrace.GetExecutionContext(ctx); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if got := agenttrace.GetExecutionContext(context.Background()); got != (agenttrace.ExecutionContext{}) {
		t.Errorf("expected zero context, got %+v", got)
	}
}

func TestEnrichAttributesBounded(t *testing.T) {
	t.Parallel()

	execCtx := agenttrace.ExecutionContext{Repository: "octo/hello", Operation: "query"}
	attrs := execCtx.EnrichAttributes(nil)
	// repository + operation + turn
	if len(attrs) != 3 {
		t.Errorf("got %d attributes, want 3", len(attrs))
	}
}
