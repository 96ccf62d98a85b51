/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records agent executions from prompt to final answer.

A Trace[T] captures the input prompt, every tool invocation (including
malformed ones), reasoning blocks, and the typed result. Traces are mirrored
onto OpenTelemetry spans so token usage and tool latency show up alongside
the rest of the service's telemetry.

Executors obtain a tracer from the context (WithTracer / StartTrace); when
none is registered a default tracer logs completed traces.
*/
package agenttrace
