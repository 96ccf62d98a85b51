/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"chainguard.dev/repolens/agents/executor/retry"
	"chainguard.dev/repolens/agents/metrics"
	"chainguard.dev/repolens/agents/promptbuilder"
	"chainguard.dev/repolens/agents/toolcall/googletool"
	"google.golang.org/genai"
)

// Option configures an executor at construction time.
type Option[Request promptbuilder.Bindable, Response any] func(*executor[Request, Response]) error

// WithModel selects the Gemini model used for generation.
func WithModel[Request promptbuilder.Bindable, Response any](model string) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if !strings.HasPrefix(model, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", model)
		}
		e.model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature. Gemini accepts 0.0-2.0,
// a wider range than Claude's 0.0-1.0; low values keep tool-driven runs
// deterministic.
func WithTemperature[Request promptbuilder.Bindable, Response any](temperature float32) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if temperature < 0.0 || temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temperature)
		}
		e.temperature = temperature
		return nil
	}
}

// WithMaxOutputTokens caps the tokens generated per model turn.
func WithMaxOutputTokens[Request promptbuilder.Bindable, Response any](tokens int32) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if tokens <= 0 {
			return fmt.Errorf("max output tokens must be positive, got %d", tokens)
		}
		if tokens > 32768 {
			return fmt.Errorf("max output tokens %d exceeds maximum of 32768", tokens)
		}
		e.maxOutputTokens = tokens
		return nil
	}
}

// WithSystemInstructions sets the system prompt sent on every turn.
func WithSystemInstructions[Request promptbuilder.Bindable, Response any](prompt *promptbuilder.Prompt) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if prompt == nil {
			return errors.New("system instructions prompt cannot be nil")
		}
		e.systemInstructions = prompt
		return nil
	}
}

// WithResponseMIMEType sets the response MIME type (e.g. "application/json").
func WithResponseMIMEType[Request promptbuilder.Bindable, Response any](mimeType string) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if mimeType != "" && mimeType != "application/json" && mimeType != "text/plain" {
			return fmt.Errorf("unsupported MIME type %q, must be 'application/json' or 'text/plain'", mimeType)
		}
		e.responseMIMEType = mimeType
		return nil
	}
}

// WithResponseSchema constrains structured output to the given schema.
func WithResponseSchema[Request promptbuilder.Bindable, Response any](schema *genai.Schema) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		e.responseSchema = schema
		return nil
	}
}

// WithThinking enables thinking mode with the given token budget.
// Pass -1 for dynamic thinking where the model sizes its own budget.
// See https://ai.google.dev/gemini-api/docs/thinking
func WithThinking[Request promptbuilder.Bindable, Response any](budgetTokens int32) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if budgetTokens == -1 {
			e.thinkingBudget = &budgetTokens
			return nil
		}
		if budgetTokens <= 0 {
			return fmt.Errorf("thinking budget must be positive (or -1 for dynamic), got %d", budgetTokens)
		}
		// The API counts thought tokens and output tokens against the
		// same limit, so the budget must leave room for actual output.
		if budgetTokens >= e.maxOutputTokens {
			return fmt.Errorf("thinking budget (%d) must be less than max_output_tokens (%d)", budgetTokens, e.maxOutputTokens)
		}
		e.thinkingBudget = &budgetTokens
		return nil
	}
}

// WithMaxIterations caps the number of model round-trips per Execute call.
// When the cap is reached without a final answer, Execute returns an error
// wrapping ErrMaxIterations.
func WithMaxIterations[Request promptbuilder.Bindable, Response any](n int) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		e.maxIterations = n
		return nil
	}
}

// SubmitResultProvider constructs tool metadata for submit_result.
type SubmitResultProvider[Response any] func() (googletool.Metadata[Response], error)

// WithSubmitResultProvider registers the submit_result tool. Opt-in:
// without it the executor parses the final answer from free text.
func WithSubmitResultProvider[Request promptbuilder.Bindable, Response any](provider SubmitResultProvider[Response]) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if provider == nil {
			return errors.New("submit_result provider cannot be nil")
		}
		tool, err := provider()
		if err != nil {
			return err
		}
		e.submitTool = tool
		return nil
	}
}

// WithAttributeEnricher installs an enricher that adds application
// context (e.g. which repository is being queried) to every metric.
// Without it, metrics carry only the base model and tool attributes.
func WithAttributeEnricher[Request promptbuilder.Bindable, Response any](enricher metrics.AttributeEnricher) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		e.genaiMetrics.SetAttributeEnricher(enricher)
		return nil
	}
}

// WithRetryConfig overrides the retry policy for transient API errors,
// notably 429 RESOURCE_EXHAUSTED when quota runs out.
func WithRetryConfig[Request promptbuilder.Bindable, Response any](cfg retry.RetryConfig) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.retryConfig = cfg
		return nil
	}
}

// WithResourceLabels sets labels sent with each API request for cost
// attribution. Defaults come from the environment (K_SERVICE,
// CHAINGUARD_PRODUCT, CHAINGUARD_TEAM); custom labels override defaults
// on key collision.
func WithResourceLabels[Request promptbuilder.Bindable, Response any](labels map[string]string) Option[Request, Response] {
	return func(e *executor[Request, Response]) error {
		e.resourceLabels = map[string]string{
			"service_name": envOr("K_SERVICE", "unknown"),
			"product":      envOr("CHAINGUARD_PRODUCT", "unknown"),
			"team":         envOr("CHAINGUARD_TEAM", "unknown"),
		}
		maps.Copy(e.resourceLabels, labels)
		return nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
