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
	"chainguard.dev/repolens/agents/toolcall/claudetool"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/chainguard-dev/clog"
)

// ClaudeTool builds the Claude tool metadata for submitting the final
// result. The tool takes a reasoning string plus the structured payload,
// and its handler deposits the decoded payload into the executor's result.
func ClaudeTool[Response any](opts Options[Response]) (claudetool.Metadata[Response], error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return claudetool.Metadata[Response]{}, err
	}

	responseSchema := opts.schemaForResponse()
	responseSchema.Description = opts.PayloadDescription

	payloadSchema, err := schemaToMap(responseSchema)
	if err != nil {
		return claudetool.Metadata[Response]{}, fmt.Errorf("convert payload schema: %w", err)
	}

	handler := func(ctx context.Context, toolUse anthropic.ToolUseBlock, trace *agenttrace.Trace[Response], result *Response) map[string]any {
		params, errResp := claudetool.NewParams(toolUse)
		if errResp != nil {
			trace.BadToolCall(toolUse.ID, toolUse.Name, map[string]any{
				"input": toolUse.Input,
			}, errors.New("parameter error"))
			return errResp
		}
		rawInputs := params.RawInputs()

		reasoning, errMap := claudetool.Param[string](params, "reasoning")
		if errMap != nil {
			trace.BadToolCall(toolUse.ID, toolUse.Name, rawInputs, errors.New("parameter error"))
			return errMap
		}
		payloadRaw, errMap := claudetool.Param[map[string]any](params, opts.PayloadFieldName)
		if errMap != nil {
			trace.BadToolCall(toolUse.ID, toolUse.Name, rawInputs, errors.New("parameter error"))
			return errMap
		}

		clog.FromContext(ctx).With("reasoning", reasoning).Info("Submitting result")

		tc := trace.StartToolCall(toolUse.ID, toolUse.Name, rawInputs)

		parsed, err := decodePayload[Response](payloadRaw)
		if err != nil {
			tc.Complete(nil, err)
			return claudetool.Error("failed to decode payload: %v", err)
		}
		*result = parsed

		success := map[string]any{
			"success": true,
			"message": opts.SuccessMessage,
		}
		tc.Complete(success, nil)
		return success
	}

	return claudetool.Metadata[Response]{
		Definition: anthropic.ToolParam{
			Name:        opts.ToolName,
			Description: anthropic.String(opts.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type: constant.Object("object"),
				Properties: map[string]any{
					"reasoning": map[string]any{
						"type":        "string",
						"description": "Explain why you are confident this result is complete and accurate.",
					},
					opts.PayloadFieldName: payloadSchema,
				},
				Required: []string{"reasoning", opts.PayloadFieldName},
			},
		},
		Handler: handler,
	}, nil
}

// ClaudeToolForResponse builds the submit tool with wording taken from the
// submitresult tag on the Response type.
func ClaudeToolForResponse[Response any]() (claudetool.Metadata[Response], error) {
	return ClaudeTool(OptionsForResponse[Response]())
}
