package radium

import "encoding/json"

// ModelCallRequest is the provider-agnostic shape every adapter accepts.
type ModelCallRequest struct {
	Model      string                 `json:"model"`
	System     string                 `json:"system,omitempty"`
	Messages   []Message              `json:"messages"`
	Tools      []ToolSchema           `json:"tools,omitempty"`
	Parameters CallParameters         `json:"parameters,omitempty"`
}

// CallParameters carries generation knobs common across providers.
type CallParameters struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Message is one turn in the conversation sent to a provider.
type Message struct {
	Role        string       `json:"role"` // "user", "assistant", "tool"
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolSchema describes a tool's calling contract to a provider.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ModelResponse is what a provider returns for a completed call.
type ModelResponse struct {
	Content   string         `json:"content,omitempty"`
	ToolCalls []ToolCall     `json:"tool_calls,omitempty"`
	Usage     *TokenUsage    `json:"usage,omitempty"`
	ModelID   string         `json:"model_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TokenUsage reports consumption for cost tracking (spec.md §4.2).
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolCall is a single tool invocation request from the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentVector parses a ToolCall's arguments into a flat string slice for
// policy glob matching (space-joined per spec.md §4.3).
func (tc ToolCall) ArgumentVector() []string {
	var asMap map[string]any
	if err := json.Unmarshal(tc.Arguments, &asMap); err == nil {
		out := make([]string, 0, len(asMap))
		for _, v := range asMap {
			out = append(out, toArgString(v))
		}
		return out
	}
	var asSlice []any
	if err := json.Unmarshal(tc.Arguments, &asSlice); err == nil {
		out := make([]string, 0, len(asSlice))
		for _, v := range asSlice {
			out = append(out, toArgString(v))
		}
		return out
	}
	return nil
}

func toArgString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// ToolResult is the outcome of executing a ToolCall. IsError distinguishes a
// soft failure returned to the model (the model sees it as a message) from
// the hard-failure path, which is represented as a Go error upstream.
type ToolResult struct {
	ToolCallID string         `json:"tool_call_id"`
	Success    bool           `json:"success"`
	Output     string         `json:"output"`
	IsError    bool           `json:"is_error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
