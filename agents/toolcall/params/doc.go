/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params extracts typed parameters from tool call argument maps.
//
// JSON decoding yields float64 for every number, so the extractors coerce
// numeric values to the requested integer type. Extraction failures are
// returned as error maps suitable for sending straight back to the model.
package params
