// Package tools implements the Tool & MCP Substrate's local-tool half
// (spec.md §4.4): a name-keyed registry of executable tools that also
// satisfies orchestrator.ToolExecutor, so the orchestrator can run
// built-in tools and MCP-bridged tools through one interface.
//
// Grounded on internal/agent/tool_registry.go's ToolRegistry (map+RWMutex
// shape, name/size validation in Execute).
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/radium-run/radium/pkg/radium"
)

// Tool is a locally-executable capability (spec.md §4.4: "execute(arguments)
// → ToolResult"). MCP-backed tools satisfy this too, via internal/mcp's
// synthesized local tool wrapper.
type Tool interface {
	Name() string
	Description() string
	Schema() radium.ToolSchema
	Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error)
}

const (
	// maxToolNameLength guards against pathological provider output.
	maxToolNameLength = 256
	// maxToolArgsSize bounds a single call's argument payload (10MB).
	maxToolArgsSize = 10 << 20
)

// Registry is a thread-safe, name-keyed tool set. Names must be unique per
// session (spec.md §4.4); re-registering a name replaces the prior tool.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), schemas: make(map[string]*jsonschema.Schema)}
}

// Register adds or replaces a tool by name. The tool's declared parameter
// schema is compiled eagerly so a malformed schema surfaces at registration
// time rather than on the first call; a tool whose schema fails to compile
// is still registered (Execute then skips argument validation for it, since
// a broken declared schema shouldn't block dispatch the model already
// committed to).
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	delete(r.schemas, t.Name())

	params := t.Schema().Parameters
	if len(params) == 0 {
		return
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(t.Name(), bytes.NewReader(params)); err != nil {
		return
	}
	if schema, err := compiler.Compile(t.Name()); err == nil {
		r.schemas[t.Name()] = schema
	}
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Has reports whether name is registered, satisfying orchestrator.ToolExecutor.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Schemas returns every registered tool's calling contract, satisfying
// orchestrator.ToolExecutor.
func (r *Registry) Schemas() []radium.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]radium.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Schema())
	}
	return out
}

// Execute runs the named tool, satisfying orchestrator.ToolExecutor.
func (r *Registry) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	if len(call.Name) > maxToolNameLength {
		return radium.ToolResult{}, fmt.Errorf("tool name exceeds maximum length of %d characters", maxToolNameLength)
	}
	if len(call.Arguments) > maxToolArgsSize {
		return radium.ToolResult{}, fmt.Errorf("tool arguments exceed maximum size of %d bytes", maxToolArgsSize)
	}

	r.mu.RLock()
	t, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()
	if !ok {
		return radium.ToolResult{}, fmt.Errorf("tool not found: %s", call.Name)
	}

	if schema != nil {
		decoder := json.NewDecoder(bytes.NewReader(call.Arguments))
		decoder.UseNumber()
		var args any
		if err := decoder.Decode(&args); err != nil {
			return radium.ToolResult{}, fmt.Errorf("tool %s: invalid argument JSON: %w", call.Name, err)
		}
		if err := schema.Validate(args); err != nil {
			return radium.ToolResult{}, fmt.Errorf("tool %s: arguments do not match declared schema: %w", call.Name, err)
		}
	}

	return t.Execute(ctx, call)
}
