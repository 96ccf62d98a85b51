/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudetool adapts provider-independent tool definitions to the
// Anthropic SDK. FromTool converts a toolcall.Tool into the Metadata shape
// the Claude executor consumes, and NewParams/Param provide typed parameter
// extraction for handlers written directly against anthropic.ToolUseBlock.
package claudetool
