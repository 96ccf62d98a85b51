/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher lets the application layer stamp its own context onto
// metric attributes without the executors knowing about it. It receives
// the base attributes (model, tool) and returns the set to record, usually
// with dimensions such as which repository is being queried appended.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue
