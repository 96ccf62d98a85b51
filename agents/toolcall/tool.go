/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall/params"
)

// ToolCall carries one tool invocation as decoded from a model response,
// independent of which provider produced it.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Parameter is one entry in a tool's input schema. Type holds the JSON
// schema type name ("string", "integer", "boolean", "number").
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Definition is the provider-neutral schema of a tool. The claudetool and
// googletool subpackages translate it to each provider's wire format.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Tool pairs a Definition with the handler that services calls to it.
// Resp is the executor's response type, threaded through so handlers can
// populate the result as a side effect.
type Tool[Resp any] struct {
	Def     Definition
	Handler func(ctx context.Context, call ToolCall, trace *agenttrace.Trace[Resp], result *Resp) map[string]any
}

// badCallRecorder is the slice of agenttrace.Trace that Param needs,
// kept narrow so tests can substitute a recorder.
type badCallRecorder interface {
	BadToolCall(string, string, map[string]any, error)
}

// Param pulls a required argument out of the call. A missing or
// mistyped argument is recorded on the trace and reported back to the
// model as an error response.
func Param[T any](call ToolCall, trace badCallRecorder, name string) (T, map[string]any) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		trace.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing %s parameter", name))
		return v, params.Error("%s", err)
	}
	return v, nil
}

// OptionalParam pulls an argument that may be absent, substituting
// defaultValue when it is. A present-but-mistyped argument is still an
// error response.
func OptionalParam[T any](call ToolCall, name string, defaultValue T) (T, map[string]any) {
	v, err := params.ExtractOptional[T](call.Args, name, defaultValue)
	if err != nil {
		return v, params.Error("%s", err)
	}
	return v, nil
}
