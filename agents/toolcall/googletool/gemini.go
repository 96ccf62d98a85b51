/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googletool

import (
	"context"
	"fmt"
	"maps"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall"
	"chainguard.dev/repolens/agents/toolcall/params"
	"google.golang.org/genai"
)

// Metadata describes a tool available to the Gemini executor.
type Metadata[Response any] struct {
	// Definition is the Google AI tool definition.
	Definition *genai.FunctionDeclaration

	// Handler processes tool calls. If the handler sets *result to a
	// non-zero value, the executor exits immediately with that response.
	Handler func(ctx context.Context, call *genai.FunctionCall, trace *agenttrace.Trace[Response], result *Response) *genai.FunctionResponse
}

// FromTool converts a provider-independent tool into Gemini metadata.
// The returned handler wraps the function call args in a normalized
// toolcall.ToolCall and packages the handler's map result as a
// FunctionResponse.
func FromTool[Resp any](tool toolcall.Tool[Resp]) Metadata[Resp] {
	properties := make(map[string]*genai.Schema, len(tool.Def.Parameters))
	var required []string
	for _, p := range tool.Def.Parameters {
		properties[p.Name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return Metadata[Resp]{
		Definition: &genai.FunctionDeclaration{
			Name:        tool.Def.Name,
			Description: tool.Def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		},
		Handler: func(ctx context.Context, call *genai.FunctionCall, trace *agenttrace.Trace[Resp], result *Resp) *genai.FunctionResponse {
			tc := toolcall.ToolCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			}
			response := tool.Handler(ctx, tc, trace, result)
			if response == nil {
				response = map[string]any{}
			}
			return &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: response,
			}
		},
	}
}

// Map converts a map of provider-independent tools into Gemini metadata.
func Map[Resp any](tools map[string]toolcall.Tool[Resp]) map[string]Metadata[Resp] {
	out := make(map[string]Metadata[Resp], len(tools))
	for name, tool := range tools {
		out[name] = FromTool(tool)
	}
	return out
}

// schemaType maps a JSON schema type name to the genai schema type.
func schemaType(name string) genai.Type {
	switch name {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Param extracts a required parameter from a Gemini function call.
// Returns the extracted value or a FunctionResponse error that can be sent
// back to the model.
func Param[T any](call *genai.FunctionCall, name string) (T, *genai.FunctionResponse) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		return v, errResponse(call, "%s", err)
	}
	return v, nil
}

// OptionalParam extracts an optional parameter from a Gemini function call.
// Returns the default value if the parameter doesn't exist, or a
// FunctionResponse error if type conversion fails.
func OptionalParam[T any](call *genai.FunctionCall, name string, defaultValue T) (T, *genai.FunctionResponse) {
	v, err := params.ExtractOptional(call.Args, name, defaultValue)
	if err != nil {
		return v, errResponse(call, "%s", err)
	}
	return v, nil
}

// Error creates a FunctionResponse with an error message.
func Error(call *genai.FunctionCall, format string, args ...any) *genai.FunctionResponse {
	return errResponse(call, format, args...)
}

// ErrorWithContext creates a FunctionResponse with an error and additional
// context fields.
func ErrorWithContext(call *genai.FunctionCall, err error, context map[string]any) *genai.FunctionResponse {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: response,
	}
}

func errResponse(call *genai.FunctionCall, format string, args ...any) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:   call.ID,
		Name: call.Name,
		Response: map[string]any{
			"error": fmt.Sprintf(format, args...),
		},
	}
}
