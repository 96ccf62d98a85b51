/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googletool adapts provider-independent tool definitions to the
// Google GenAI SDK. FromTool converts a toolcall.Tool into the Metadata shape
// the Gemini executor consumes, and Param/OptionalParam provide typed
// parameter extraction for handlers written directly against
// genai.FunctionCall.
package googletool
