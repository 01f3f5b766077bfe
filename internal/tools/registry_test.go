package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/radium-run/radium/pkg/radium"
)

type stubTool struct {
	name   string
	schema json.RawMessage
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Schema() radium.ToolSchema {
	return radium.ToolSchema{Name: s.name, Description: "stub", Parameters: s.schema}
}
func (s *stubTool) Execute(ctx context.Context, call radium.ToolCall) (radium.ToolResult, error) {
	return radium.ToolResult{ToolCallID: call.ID, Success: true, Output: "ok"}, nil
}

func TestRegistryExecuteRejectsArgumentsViolatingSchema(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{
		name:   "typed",
		schema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
	})

	_, err := r.Execute(context.Background(), radium.ToolCall{Name: "typed", Arguments: json.RawMessage(`{}`)})
	if err == nil {
		t.Fatal("expected an error for missing required property")
	}
}

func TestRegistryExecuteAllowsArgumentsMatchingSchema(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{
		name:   "typed",
		schema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
	})

	result, err := r.Execute(context.Background(), radium.ToolCall{Name: "typed", Arguments: json.RawMessage(`{"path":"a.txt"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestRegistryExecuteSkipsValidationWhenNoSchemaDeclared(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "untyped"})

	_, err := r.Execute(context.Background(), radium.ToolCall{Name: "untyped", Arguments: json.RawMessage(`{"anything":true}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryUnregisterClearsCompiledSchema(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{
		name:   "typed",
		schema: json.RawMessage(`{"type":"object","required":["path"]}`),
	})
	r.Unregister("typed")

	if r.Has("typed") {
		t.Fatal("expected tool to be unregistered")
	}
}
