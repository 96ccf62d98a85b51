/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package submitresult

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/toolcall/googletool"
	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"
)

// GoogleTool builds the Gemini tool metadata for submitting the final
// result, mirroring ClaudeTool for the genai SDK.
func GoogleTool[Response any](opts Options[Response]) (googletool.Metadata[Response], error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return googletool.Metadata[Response]{}, err
	}

	responseSchema := opts.schemaForResponse()
	responseSchema.Description = opts.PayloadDescription

	genaiPayload := schemaToGenai(responseSchema)
	if genaiPayload == nil {
		return googletool.Metadata[Response]{}, fmt.Errorf("failed to derive payload schema")
	}

	handler := func(ctx context.Context, call *genai.FunctionCall, trace *agenttrace.Trace[Response], result *Response) *genai.FunctionResponse {
		reasoning, errResp := googletool.Param[string](call, "reasoning")
		if errResp != nil {
			trace.BadToolCall(call.ID, call.Name, call.Args, errors.New("parameter error"))
			return errResp
		}
		payloadRaw, errResp := googletool.Param[map[string]any](call, opts.PayloadFieldName)
		if errResp != nil {
			trace.BadToolCall(call.ID, call.Name, call.Args, errors.New("parameter error"))
			return errResp
		}

		clog.FromContext(ctx).With("reasoning", reasoning).Info("Submitting result")

		tc := trace.StartToolCall(call.ID, call.Name, call.Args)

		parsed, err := decodePayload[Response](payloadRaw)
		if err != nil {
			tc.Complete(nil, err)
			return googletool.Error(call, "failed to decode payload: %v", err)
		}
		*result = parsed

		response := &genai.FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Response: map[string]any{
				"success": true,
				"message": opts.SuccessMessage,
			},
		}
		tc.Complete(response.Response, nil)
		return response
	}

	return googletool.Metadata[Response]{
		Definition: &genai.FunctionDeclaration{
			Name:        opts.ToolName,
			Description: opts.Description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"reasoning": {
						Type:        genai.TypeString,
						Description: "Explain why you are confident this result is complete and accurate.",
					},
					opts.PayloadFieldName: genaiPayload,
				},
				Required: []string{"reasoning", opts.PayloadFieldName},
			},
		},
		Handler: handler,
	}, nil
}

// GoogleToolForResponse builds the submit tool with wording taken from the
// submitresult tag on the Response type.
func GoogleToolForResponse[Response any]() (googletool.Metadata[Response], error) {
	return GoogleTool(OptionsForResponse[Response]())
}
