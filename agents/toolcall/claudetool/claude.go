/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudetool

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
)

// Metadata describes a tool available to the Claude executor.
type Metadata[Response any] struct {
	// Definition is the Anthropic SDK tool definition.
	Definition anthropic.ToolParam

	// Handler processes tool calls. If the handler sets *result to a
	// non-zero value, the executor exits immediately with that response.
	Handler func(ctx context.Context, toolUse anthropic.ToolUseBlock, trace *agenttrace.Trace[Response], result *Response) map[string]any
}

// FromTool converts a provider-independent tool into Claude metadata.
// The returned handler decodes the tool use input JSON into a normalized
// toolcall.ToolCall before dispatching to the tool's handler.
func FromTool[Resp any](tool toolcall.Tool[Resp]) Metadata[Resp] {
	properties := make(map[string]any, len(tool.Def.Parameters))
	var required []string
	for _, p := range tool.Def.Parameters {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return Metadata[Resp]{
		Definition: anthropic.ToolParam{
			Name:        tool.Def.Name,
			Description: anthropic.String(tool.Def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
				Required:   required,
			},
		},
		Handler: func(ctx context.Context, toolUse anthropic.ToolUseBlock, trace *agenttrace.Trace[Resp], result *Resp) map[string]any {
			var args map[string]any
			if err := json.Unmarshal(toolUse.Input, &args); err != nil {
				trace.BadToolCall(toolUse.ID, toolUse.Name, nil, fmt.Errorf("parsing tool input: %w", err))
				return Error("failed to parse tool input: %v", err)
			}
			call := toolcall.ToolCall{
				ID:   toolUse.ID,
				Name: toolUse.Name,
				Args: args,
			}
			return tool.Handler(ctx, call, trace, result)
		},
	}
}

// Map converts a map of provider-independent tools into Claude metadata.
func Map[Resp any](tools map[string]toolcall.Tool[Resp]) map[string]Metadata[Resp] {
	out := make(map[string]Metadata[Resp], len(tools))
	for name, tool := range tools {
		out[name] = FromTool(tool)
	}
	return out
}

// Error creates an error response map for Claude tool calls.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorWithContext creates an error response with additional context fields.
func ErrorWithContext(err error, context map[string]any) map[string]any {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return response
}
