/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

// ToolProvider defines the set of tools available to an agent.
// Implementations return provider-independent tool definitions; conversion
// to SDK-specific types happens downstream in the executor wiring.
// CB carries whatever callbacks the tools need to do real work
// (e.g. a vector store and a repository snapshot).
type ToolProvider[Resp, CB any] interface {
	// Tools returns unified tool definitions that work with any provider.
	Tools(cb CB) map[string]Tool[Resp]
}
