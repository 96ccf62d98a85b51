/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI records OpenTelemetry counters for model calls: prompt and
// completion token usage plus tool invocations. Counters that fail to
// initialize are replaced with no-ops so metric trouble never takes the
// agent down.
type GenAI struct {
	meter            metric.Meter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCallCounter  metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGenAI builds a GenAI on the named meter. Use one meter name across
// all executors (e.g. "chainguard.ai.repolens") and let the model
// attribute distinguish Claude from Gemini on the recorded series.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))
	return &GenAI{
		meter:            meter,
		promptTokens:     newCounter(meter, meterName, "genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: newCounter(meter, meterName, "genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCallCounter:  newCounter(meter, meterName, "genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
	}
}

func newCounter(meter metric.Meter, meterName, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metrics will be disabled", "counter", name, "error", err, "meter", meterName)
		return noop.Int64Counter{}
	}
	return c
}

// SetAttributeEnricher installs an enricher that runs before every record
// to add caller context (repository, operation, turn) to the attributes.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

// RecordTokens records prompt and completion token usage for one model call.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	merged := m.enrich(ctx, []attribute.KeyValue{
		attribute.String("model", model),
	}, attrs)

	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(merged...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(merged...))
}

// RecordToolCall counts one tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, attrs ...attribute.KeyValue) {
	merged := m.enrich(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
	}, attrs)

	m.toolCallCounter.Add(ctx, 1, metric.WithAttributes(merged...))
}

func (m *GenAI) enrich(ctx context.Context, base, extra []attribute.KeyValue) []attribute.KeyValue {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return append(base, extra...)
}
