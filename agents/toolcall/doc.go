/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider-independent tool definitions for agents.
//
// A Tool pairs a schema (Definition) with a single Handler that receives a
// normalized ToolCall, regardless of which model provider invoked it. The
// claudetool and googletool subpackages convert a Tool into the SDK-specific
// shape each executor needs:
//
//	tools := map[string]toolcall.Tool[Answer]{
//		"search_commits": {
//			Def: toolcall.Definition{
//				Name:        "search_commits",
//				Description: "Search commit history",
//				Parameters: []toolcall.Parameter{
//					{Name: "query", Type: "string", Description: "Search query", Required: true},
//				},
//			},
//			Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[Answer], result *Answer) map[string]any {
//				query, errResp := toolcall.Param[string](call, trace, "query")
//				if errResp != nil {
//					return errResp
//				}
//				// ...
//			},
//		},
//	}
//
//	claudeTools := claudetool.Map(tools) // for claudeexecutor
//	googleTools := googletool.Map(tools) // for googleexecutor
//
// A ToolProvider bundles a set of tools behind an interface so agents can be
// configured with tool sets without knowing the provider in advance.
package toolcall
