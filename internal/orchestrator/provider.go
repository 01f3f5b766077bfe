package orchestrator

import (
	"context"

	"github.com/radium-run/radium/pkg/radium"
)

// Provider is the orchestrator's view of an LLM backend (spec.md §4.2). A
// concrete failover-capable implementation lives in internal/providers;
// the orchestrator only depends on this narrow interface so it can be
// driven by a single adapter or a failover chain interchangeably.
type Provider interface {
	// Complete issues one model call and returns the full response. The
	// orchestrator streams tool/assistant events itself; this interface
	// does not need to stream partial tokens.
	Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error)
	// Name identifies the provider for logging and telemetry.
	Name() string
}

// ToolExecutor runs a single named tool call to completion (spec.md §4.4).
// Built-in tools and MCP-backed tools are both exposed through this
// interface by internal/tools.
type ToolExecutor interface {
	Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error)
	// Schemas returns the tool descriptions to advertise to the provider.
	Schemas() []radium.ToolSchema
	// Has reports whether a tool by this name is registered.
	Has(name string) bool
}
