/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/executor/retry"
	"chainguard.dev/repolens/agents/metrics"
	"chainguard.dev/repolens/agents/promptbuilder"
	"chainguard.dev/repolens/agents/result"
	"chainguard.dev/repolens/agents/toolcall/claudetool"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

// ErrMaxIterations is returned when the conversation loop reaches its
// iteration cap without the model producing a final answer.
var ErrMaxIterations = errors.New("conversation reached maximum iterations without a final answer")

// Interface is the contract for Claude executors.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	// Execute runs the conversation for the given request and tool set.
	// Seed tool calls, if any, are executed up front and their results
	// prepended to the conversation history.
	Execute(ctx context.Context, request Request, tools map[string]claudetool.Metadata[Response], seedToolCalls ...anthropic.ToolUseBlock) (Response, error)
}

type executor[Request promptbuilder.Bindable, Response any] struct {
	client               anthropic.Client
	modelName            string
	systemInstructions   *promptbuilder.Prompt
	prompt               *promptbuilder.Prompt
	maxTokens            int64
	temperature          float64
	thinkingBudgetTokens *int64 // nil disables thinking
	submitTool           claudetool.Metadata[Response]
	genaiMetrics         *metrics.GenAI
	retryConfig          retry.RetryConfig
	resourceLabels       map[string]string

	maxIterations       int // cap on model round-trips
	tokenBudget         int // estimated token ceiling for conversation history
	maxToolResultTokens int // per-tool-result size cap before truncation
}

// New builds a Claude executor. The prompt is the user-turn template;
// request values are bound into it per Execute call.
func New[Request promptbuilder.Bindable, Response any](
	client anthropic.Client,
	prompt *promptbuilder.Prompt,
	opts ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if prompt == nil {
		return nil, errors.New("prompt cannot be nil")
	}

	e := &executor[Request, Response]{
		client:      client,
		modelName:   "claude-sonnet-4-20250514",
		prompt:      prompt,
		maxTokens:   8192,
		temperature: 0.1,
		// One meter across executors; the model attribute is the dimension.
		genaiMetrics:        metrics.NewGenAI("chainguard.ai.repolens"),
		retryConfig:         retry.DefaultRetryConfig(),
		maxIterations:       defaultMaxIterations,
		tokenBudget:         defaultTokenBudget,
		maxToolResultTokens: defaultMaxToolResultTokens,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Execute binds the request into the prompt, runs the tool-calling loop,
// and returns either the result a tool deposited or the parsed final text.
func (e *executor[Request, Response]) Execute(
	ctx context.Context,
	request Request,
	tools map[string]claudetool.Metadata[Response],
	seedToolCalls ...anthropic.ToolUseBlock,
) (response Response, err error) {
	log := clog.FromContext(ctx)

	boundPrompt, err := request.Bind(e.prompt)
	if err != nil {
		return response, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := boundPrompt.Build()
	if err != nil {
		return response, fmt.Errorf("failed to build prompt: %w", err)
	}

	trace := agenttrace.StartTrace[Response](ctx, prompt)
	defer func() {
		trace.Complete(response, err)
	}()

	log.With("prompt_length", len(prompt)).
		Info("Starting Claude agent execution")

	tools = e.withSubmitTool(tools)

	params, err := e.newMessageParams(prompt, tools)
	if err != nil {
		return response, err
	}

	// finalResult is populated by tool handlers (submit_result in
	// particular); a non-zero value ends the conversation.
	var finalResult Response

	runTool := func(toolUse anthropic.ToolUseBlock) (anthropic.ContentBlockParamUnion, error) {
		log.With("tool", toolUse.Name).
			With("id", toolUse.ID).
			Info("Executing tool call")

		var toolResult map[string]any
		if meta, ok := tools[toolUse.Name]; ok {
			toolResult = meta.Handler(ctx, toolUse, trace, &finalResult)
		} else {
			log.With("tool", toolUse.Name).Error("Unknown tool requested")
			trace.BadToolCall(toolUse.ID, toolUse.Name,
				map[string]any{"input": toolUse.Input},
				fmt.Errorf("unknown tool: %q", toolUse.Name))
			toolResult = map[string]any{
				"error": fmt.Sprintf("unknown tool: %q", toolUse.Name),
			}
		}

		resultBytes, err := json.Marshal(toolResult)
		if err != nil {
			return anthropic.ContentBlockParamUnion{}, fmt.Errorf("failed to marshal tool result: %w", err)
		}

		// Oversized tool results blow the context window long before the
		// budget check can react; cap them at the source.
		resultText := truncateToolResult(string(resultBytes), e.maxToolResultTokens)

		return anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: toolUse.ID,
				Content: []anthropic.ToolResultBlockParamContentUnion{{
					OfText: &anthropic.TextBlockParam{
						Text: resultText,
					},
				}},
			},
		}, nil
	}

	// Pre-execute seed tool calls so their results open the conversation.
	for _, toolCall := range seedToolCalls {
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role: anthropic.MessageParamRoleAssistant,
			Content: []anthropic.ContentBlockParamUnion{{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    toolCall.ID,
					Name:  toolCall.Name,
					Input: toolCall.Input,
				},
			}},
		})

		seedResult, err := runTool(toolCall)
		if err != nil {
			return response, err
		}
		if !reflect.ValueOf(finalResult).IsZero() {
			log.Info("Seed tool set final result, exiting immediately")
			return finalResult, nil
		}

		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{seedResult},
		})
	}

	// contextReset tracks the one-shot recovery from a context window overflow.
	contextReset := false

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		// Keep the conversation under the token budget before each round-trip.
		if estimated := estimateTokens(params.Messages); estimated > e.tokenBudget {
			before := len(params.Messages)
			params.Messages = trimMessages(params.Messages, keepRecentMessages)
			log.With("estimated_tokens", estimated).
				With("budget", e.tokenBudget).
				With("messages_before", before).
				With("messages_after", len(params.Messages)).
				Warn("Conversation over token budget, trimming history")
		}

		message, err := e.streamMessage(ctx, params)
		if err != nil {
			// A context window overflow gets one recovery attempt: drop the
			// accumulated history and let the model start over with fresh
			// tool calls.
			if isContextLengthError(err) && !contextReset {
				contextReset = true
				params.Messages = resetConversation(params.Messages)
				log.Warn("Context window exceeded, resetting conversation history")
				continue
			}
			return response, fmt.Errorf("failed to stream Claude response: %w", err)
		}

		if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
			e.recordTokenMetrics(ctx, message.Usage.InputTokens, message.Usage.OutputTokens)
			// Also record on the trace span for easy viewing in Cloud Trace.
			trace.RecordTokenUsage(e.modelName, message.Usage.InputTokens, message.Usage.OutputTokens)
		}

		var toolUseBlocks []anthropic.ToolUseBlock
		var textContent string
		for _, content := range message.Content {
			switch content.Type {
			case "text":
				textContent = content.Text
			case "tool_use":
				toolUseBlocks = append(toolUseBlocks, anthropic.ToolUseBlock{
					ID:    content.ID,
					Name:  content.Name,
					Input: content.Input,
				})
			case "thinking", "redacted_thinking":
				trace.Reasoning = append(trace.Reasoning, agenttrace.ReasoningContent{
					Thinking: content.Thinking,
				})
			}
		}

		if len(toolUseBlocks) > 0 {
			params.Messages = append(params.Messages, message.ToParam())

			var toolResults []anthropic.ContentBlockParamUnion
			for _, toolUse := range toolUseBlocks {
				e.recordToolCall(ctx, toolUse.Name)

				toolResult, err := runTool(toolUse)
				if err != nil {
					return response, err
				}
				toolResults = append(toolResults, toolResult)

				if !reflect.ValueOf(finalResult).IsZero() {
					log.Info("Tool set final result, exiting conversation loop")
					return finalResult, nil
				}
			}

			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: toolResults,
			})
			continue
		}

		if textContent != "" {
			resp, err := result.Extract[Response](textContent)
			if err != nil {
				log.With("response", textContent).
					With("error", err).
					Error("Failed to parse Claude response")
				return response, fmt.Errorf("failed to parse response: %w", err)
			}
			log.Info("Successfully completed Claude agent execution")
			return resp, nil
		}

		return response, errors.New("no content in Claude's response")
	}

	return response, fmt.Errorf("%w (max_iterations=%d)", ErrMaxIterations, e.maxIterations)
}

// withSubmitTool merges the opt-in submit tool into the tool set without
// mutating the caller's map. An existing tool with the same name wins.
func (e *executor[Request, Response]) withSubmitTool(tools map[string]claudetool.Metadata[Response]) map[string]claudetool.Metadata[Response] {
	if e.submitTool.Handler == nil {
		return tools
	}

	name := e.submitTool.Definition.Name
	if name == "" {
		name = "submit_result"
	}

	merged := make(map[string]claudetool.Metadata[Response], len(tools)+1)
	maps.Copy(merged, tools)
	if _, exists := merged[name]; !exists {
		merged[name] = e.submitTool
	}
	return merged
}

// newMessageParams assembles the request parameters: model settings,
// system prompt, thinking config, and the tool definitions.
func (e *executor[Request, Response]) newMessageParams(prompt string, tools map[string]claudetool.Metadata[Response]) (anthropic.MessageNewParams, error) {
	toolDefs := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, meta := range tools {
		toolDefs = append(toolDefs, anthropic.ToolUnionParam{
			OfTool: &meta.Definition,
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.modelName),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
		Tools:       toolDefs,
		Temperature: anthropic.Float(e.temperature),
	}

	if e.systemInstructions != nil {
		systemPrompt, err := e.systemInstructions.Build()
		if err != nil {
			return params, fmt.Errorf("building system prompt: %w", err)
		}
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if e.thinkingBudgetTokens != nil {
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{
				BudgetTokens: *e.thinkingBudgetTokens,
			},
		}
		// Temperature must be 1.0 when thinking is enabled.
		// See: https://docs.claude.com/en/docs/build-with-claude/extended-thinking#important-considerations-when-using-extended-thinking
		params.Temperature = anthropic.Float(1.0)
	}

	return params, nil
}

// streamMessage streams one model turn, accumulating the events into a
// complete message, with retries on transient API errors.
func (e *executor[Request, Response]) streamMessage(ctx context.Context, params anthropic.MessageNewParams) (anthropic.Message, error) {
	return retry.RetryWithBackoff(ctx, e.retryConfig, "stream_message", isRetryableClaudeError, func() (anthropic.Message, error) {
		stream := e.client.Messages.NewStreaming(ctx, params)
		var msg anthropic.Message
		for stream.Next() {
			if err := msg.Accumulate(stream.Current()); err != nil {
				return msg, fmt.Errorf("failed to accumulate event: %w", err)
			}
		}
		if err := stream.Err(); err != nil {
			return msg, err
		}
		return msg, nil
	})
}

func (e *executor[Request, Response]) resourceLabelsToAttributes() []attribute.KeyValue {
	if len(e.resourceLabels) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, len(e.resourceLabels))
	for k, v := range e.resourceLabels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

func (e *executor[Request, Response]) recordTokenMetrics(ctx context.Context, inputTokens, outputTokens int64) {
	e.genaiMetrics.RecordTokens(ctx, e.modelName, inputTokens, outputTokens, e.resourceLabelsToAttributes()...)
}

func (e *executor[Request, Response]) recordToolCall(ctx context.Context, toolName string) {
	e.genaiMetrics.RecordToolCall(ctx, e.modelName, toolName, e.resourceLabelsToAttributes()...)
}
