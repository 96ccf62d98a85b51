/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"

	"chainguard.dev/repolens/agents/agenttrace"
	"chainguard.dev/repolens/agents/executor/retry"
	"chainguard.dev/repolens/agents/metrics"
	"chainguard.dev/repolens/agents/promptbuilder"
	"chainguard.dev/repolens/agents/result"
	"chainguard.dev/repolens/agents/toolcall/googletool"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Interface is the contract for Gemini executors.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	// Execute runs the conversation for the given request and tool set.
	// Seed tool calls, if any, are executed up front and their results
	// prepended to the conversation history.
	Execute(ctx context.Context, request Request, tools map[string]googletool.Metadata[Response], seedToolCalls ...*genai.FunctionCall) (Response, error)
}

// ErrMaxIterations is returned when the conversation loop reaches its
// iteration cap without the model producing a final answer.
var ErrMaxIterations = errors.New("conversation reached maximum iterations without a final answer")

// defaultMaxIterations caps model round-trips per Execute call.
const defaultMaxIterations = 10

type executor[Request promptbuilder.Bindable, Response any] struct {
	client             *genai.Client
	prompt             *promptbuilder.Prompt
	model              string
	temperature        float32
	maxOutputTokens    int32
	systemInstructions *promptbuilder.Prompt
	responseMIMEType   string
	responseSchema     *genai.Schema
	thinkingBudget     *int32 // nil disables thinking
	submitTool         googletool.Metadata[Response]
	genaiMetrics       *metrics.GenAI
	retryConfig        retry.RetryConfig
	resourceLabels     map[string]string
	maxIterations      int
}

// New builds a Gemini executor. The prompt is the user-turn template;
// request values are bound into it per Execute call.
func New[Request promptbuilder.Bindable, Response any](
	client *genai.Client,
	prompt *promptbuilder.Prompt,
	options ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if prompt == nil {
		return nil, errors.New("prompt is required")
	}

	exec := &executor[Request, Response]{
		client:          client,
		prompt:          prompt,
		model:           "gemini-2.5-flash",
		temperature:     0.1,
		maxOutputTokens: 8192,
		// One meter across executors; the model attribute is the dimension.
		genaiMetrics:  metrics.NewGenAI("chainguard.ai.repolens"),
		retryConfig:   retry.DefaultRetryConfig(),
		maxIterations: defaultMaxIterations,
	}

	for _, opt := range options {
		if err := opt(exec); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return exec, nil
}

// Execute binds the request into the prompt, runs the tool-calling loop,
// and returns either the result a tool deposited or the parsed final text.
func (e *executor[Request, Response]) Execute(
	ctx context.Context,
	request Request,
	tools map[string]googletool.Metadata[Response],
	seedToolCalls ...*genai.FunctionCall,
) (resp Response, err error) {
	log := clog.FromContext(ctx)

	boundPrompt, err := request.Bind(e.prompt)
	if err != nil {
		return resp, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := boundPrompt.Build()
	if err != nil {
		return resp, fmt.Errorf("failed to build prompt: %w", err)
	}

	trace := agenttrace.StartTrace[Response](ctx, prompt)
	defer func() {
		trace.Complete(resp, err)
	}()

	tools = e.withSubmitTool(tools)

	toolDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, meta := range tools {
		toolDeclarations = append(toolDeclarations, meta.Definition)
	}

	config, err := e.generationConfig(toolDeclarations)
	if err != nil {
		return resp, err
	}

	log.With("model", e.model).Info("Creating Google AI chat session")

	// finalResult is populated by tool handlers (submit_result in
	// particular); a non-zero value ends the conversation.
	var finalResult Response

	history, done := e.seedHistory(ctx, log, trace, prompt, tools, seedToolCalls, &finalResult)
	if done {
		return finalResult, nil
	}

	// The genai chat API wants prior turns at creation and the current
	// turn via Send, so split the history accordingly.
	chat, err := e.client.Chats.Create(ctx, e.model, config, history[:len(history)-1])
	if err != nil {
		return resp, fmt.Errorf("failed to create chat with model %q: %w", e.model, err)
	}

	log.Info("Sending final message")
	response, err := e.sendParts(ctx, trace, chat, "send_initial_message", history[len(history)-1].Parts...)
	if err != nil {
		return resp, fmt.Errorf("failed to send final message: %w", err)
	}

	var responseText string
	for iteration := 0; ; iteration++ {
		if iteration >= e.maxIterations {
			return resp, fmt.Errorf("%w (max_iterations=%d)", ErrMaxIterations, e.maxIterations)
		}

		log.With("candidates_count", len(response.Candidates)).
			Info("Received response from model")

		if len(response.Candidates) == 0 {
			return resp, errors.New("no content generated - no candidates")
		}
		candidate := response.Candidates[0]

		if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
			log.With("finish_message", candidate.FinishMessage).
				Warn("Model attempted a malformed function call, asking it to retry")

			var funcNames []string
			for _, decl := range toolDeclarations {
				funcNames = append(funcNames, decl.Name)
			}
			retryMsg := &genai.Part{Text: fmt.Sprintf("The function call was malformed. Please try again using the available functions: %v", funcNames)}
			response, err = e.sendParts(ctx, trace, chat, "send_malformed_retry", retryMsg)
			if err != nil {
				return resp, fmt.Errorf("failed to send retry message after malformed function call: %w", err)
			}
			continue
		}

		if candidate.Content == nil {
			return resp, errors.New("no content generated - candidate content is nil")
		}
		if len(candidate.Content.Parts) == 0 {
			return resp, errors.New("no content generated - no parts in candidate")
		}

		var toolCalls []*genai.FunctionCall
		var hasText bool
		for i, part := range candidate.Content.Parts {
			switch {
			case part.Thought:
				trace.Reasoning = append(trace.Reasoning, agenttrace.ReasoningContent{
					Thinking: part.Text,
				})
				log.With("part_index", i).
					With("thinking_length", len(part.Text)).
					Info("Found thought part")
			case part.Text != "":
				responseText = part.Text
				hasText = true
				log.With("part_index", i).
					With("text_length", len(part.Text)).
					Info("Found text part")
			case part.FunctionCall != nil:
				toolCalls = append(toolCalls, part.FunctionCall)
				log.With("part_index", i).
					With("function_name", part.FunctionCall.Name).
					With("function_id", part.FunctionCall.ID).
					Info("Found function call part")
			default:
				log.With("part_index", i).
					Warn("Found part with unexpected content")
			}
		}

		if len(toolCalls) > 0 {
			responseParts, done := e.runToolCalls(ctx, log, trace, tools, toolCalls, &finalResult)
			if done {
				return finalResult, nil
			}
			response, err = e.sendParts(ctx, trace, chat, "send_tool_responses", responseParts...)
			if err != nil {
				return resp, fmt.Errorf("failed to send tool responses: %w", err)
			}
			continue
		}

		if hasText && responseText != "" {
			break
		}

		log.Error("Unexpected response format - no text and no tool calls")
		return resp, errors.New("unexpected response format from model")
	}

	if responseText == "" {
		return resp, errors.New("no text content found in response")
	}

	extractedResponse, err := result.Extract[Response](responseText)
	if err != nil {
		log.With("response", responseText).With("error", err).Error("Failed to parse AI response")
		return resp, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return extractedResponse, nil
}

// withSubmitTool merges the opt-in submit tool into the tool set without
// mutating the caller's map. An existing tool with the same name wins.
func (e *executor[Request, Response]) withSubmitTool(tools map[string]googletool.Metadata[Response]) map[string]googletool.Metadata[Response] {
	if e.submitTool.Handler == nil {
		return tools
	}

	name := "submit_result"
	if e.submitTool.Definition != nil && e.submitTool.Definition.Name != "" {
		name = e.submitTool.Definition.Name
	}

	merged := make(map[string]googletool.Metadata[Response], len(tools)+1)
	maps.Copy(merged, tools)
	if _, exists := merged[name]; !exists {
		merged[name] = e.submitTool
	}
	return merged
}

// generationConfig assembles the GenerateContentConfig from the
// executor's settings.
func (e *executor[Request, Response]) generationConfig(toolDeclarations []*genai.FunctionDeclaration) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     ptr(e.temperature),
		MaxOutputTokens: e.maxOutputTokens,
	}

	if e.systemInstructions != nil {
		systemPrompt, err := e.systemInstructions.Build()
		if err != nil {
			return nil, fmt.Errorf("building system prompt: %w", err)
		}
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{
				Text: systemPrompt,
			}},
		}
	}

	if len(toolDeclarations) > 0 {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: toolDeclarations,
		}}
	}
	if e.responseMIMEType != "" {
		config.ResponseMIMEType = e.responseMIMEType
	}
	if e.responseSchema != nil {
		config.ResponseSchema = e.responseSchema
	}
	if e.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  e.thinkingBudget,
		}
	}
	return config, nil
}

// seedHistory builds the initial conversation: the user prompt followed by
// any pre-executed seed tool calls and their results. Returns done=true if
// a seed tool already produced the final result.
func (e *executor[Request, Response]) seedHistory(
	ctx context.Context,
	log *clog.Logger,
	trace *agenttrace.Trace[Response],
	prompt string,
	tools map[string]googletool.Metadata[Response],
	seedToolCalls []*genai.FunctionCall,
	finalResult *Response,
) ([]*genai.Content, bool) {
	history := make([]*genai.Content, 0, 1+len(seedToolCalls)*2)
	history = append(history, &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: prompt,
		}},
	})

	for _, call := range seedToolCalls {
		log.With("tool", call.Name).With("id", call.ID).Info("Pre-executing seed tool call")

		var toolResponse *genai.FunctionResponse
		if meta, ok := tools[call.Name]; ok {
			toolResponse = meta.Handler(ctx, call, trace, finalResult)
		} else {
			log.With("tool", call.Name).Error("Unknown seed tool requested")
			trace.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("unknown tool: %q", call.Name))
			toolResponse = &genai.FunctionResponse{
				ID:   call.ID,
				Name: call.Name,
				Response: map[string]any{
					"error": fmt.Sprintf("unknown tool: %q", call.Name),
				},
			}
		}

		if !reflect.ValueOf(*finalResult).IsZero() {
			log.Info("Seed tool set final result, exiting immediately")
			return nil, true
		}

		history = append(history, &genai.Content{
			Role: "model",
			Parts: []*genai.Part{{
				FunctionCall: call,
			}},
		}, &genai.Content{
			Role: "user",
			Parts: []*genai.Part{{
				FunctionResponse: toolResponse,
			}},
		})
	}
	return history, false
}

// runToolCalls dispatches the model's tool calls and collects the response
// parts. Returns done=true if a handler deposited the final result.
func (e *executor[Request, Response]) runToolCalls(
	ctx context.Context,
	log *clog.Logger,
	trace *agenttrace.Trace[Response],
	tools map[string]googletool.Metadata[Response],
	toolCalls []*genai.FunctionCall,
	finalResult *Response,
) ([]*genai.Part, bool) {
	var responseParts []*genai.Part
	for _, call := range toolCalls {
		log.With("tool", call.Name).With("id", call.ID).Info("Executing tool call")
		e.recordToolCall(ctx, call.Name)

		var toolResponse *genai.FunctionResponse
		if meta, found := tools[call.Name]; found {
			toolResponse = meta.Handler(ctx, call, trace, finalResult)
		} else {
			log.With("function", call.Name).Error("Unknown function call requested by model")
			trace.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("unknown function: %q", call.Name))
			toolResponse = googletool.Error(call, "Unknown function: %s", call.Name)
		}

		if !reflect.ValueOf(*finalResult).IsZero() {
			log.Info("Tool set final result, exiting conversation loop")
			return nil, true
		}

		responseParts = append(responseParts, &genai.Part{
			FunctionResponse: toolResponse,
		})
	}
	return responseParts, false
}

// sendParts sends a turn to the chat with retries on transient API errors
// and records token usage from the reply.
func (e *executor[Request, Response]) sendParts(
	ctx context.Context,
	trace *agenttrace.Trace[Response],
	chat *genai.Chat,
	operation string,
	parts ...*genai.Part,
) (*genai.GenerateContentResponse, error) {
	response, err := retry.RetryWithBackoff(ctx, e.retryConfig, operation, isRetryableVertexError, func() (*genai.GenerateContentResponse, error) {
		return chat.Send(ctx, parts...)
	})
	if err != nil {
		return nil, err
	}

	if response != nil && response.UsageMetadata != nil {
		e.recordTokenMetrics(ctx, response.UsageMetadata)
		// Also record on the trace span for easy viewing in Cloud Trace.
		trace.RecordTokenUsage(e.model, int64(response.UsageMetadata.PromptTokenCount), int64(response.UsageMetadata.CandidatesTokenCount))
	}
	return response, nil
}

func ptr[T any](v T) *T {
	return &v
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

func (e *executor[Request, Response]) recordTokenMetrics(ctx context.Context, usage *genai.GenerateContentResponseUsageMetadata) {
	if usage == nil {
		return
	}
	e.genaiMetrics.RecordTokens(ctx, e.model, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount), e.resourceLabelsToAttributes()...)
}

func (e *executor[Request, Response]) recordToolCall(ctx context.Context, toolName string) {
	e.genaiMetrics.RecordToolCall(ctx, e.model, toolName, e.resourceLabelsToAttributes()...)
}
