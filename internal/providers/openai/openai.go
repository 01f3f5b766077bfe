// Package openai adapts github.com/sashabaranov/go-openai to the
// providers.Provider contract.
//
// Follows the same LLMProvider-style adapter contract as the Anthropic
// adapter, adapted to go-openai's ChatCompletion request/response shapes
// instead of the Messages API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/pkg/radium"
)

// Adapter wraps an openai.Client as a providers.Provider.
type Adapter struct {
	client *openai.Client
	name   string
}

// New constructs an Adapter from an API key.
func New(apiKey string, name string) *Adapter {
	if name == "" {
		name = "openai"
	}
	return &Adapter{client: openai.NewClient(apiKey), name: name}
}

func (a *Adapter) Name() string { return a.name }

// Complete issues one non-streaming chat completion call.
func (a *Adapter) Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  ToMessages(req.System, req.Messages),
		MaxTokens: req.Parameters.MaxTokens,
		Stop:      req.Parameters.Stop,
	}
	if req.Parameters.Temperature != nil {
		chatReq.Temperature = float32(*req.Parameters.Temperature)
	}
	if req.Parameters.TopP != nil {
		chatReq.TopP = float32(*req.Parameters.TopP)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = ToTools(req.Tools)
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return radium.ModelResponse{}, a.translateError(err)
	}

	return FromResponse(resp), nil
}

// translateError maps go-openai's *openai.APIError into spec.md §4.2's
// error taxonomy: HTTP 429 and the vendor's quota-exhaustion codes become a
// providers.QuotaExceeded the failover chain fails over on; everything else
// is wrapped as-is so it bubbles up or terminates the turn untouched.
func (a *Adapter) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isQuotaError(apiErr) {
		return &providers.QuotaExceeded{Provider: a.name, Message: apiErr.Message}
	}
	return fmt.Errorf("openai: %w", err)
}

func isQuotaError(apiErr *openai.APIError) bool {
	if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	switch code := apiErr.Code.(type) {
	case string:
		return code == "insufficient_quota" || code == "rate_limit_exceeded" || code == "billing_hard_limit_reached"
	}
	return false
}

func ToMessages(system string, msgs []radium.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		role := m.Role
		switch role {
		case "assistant", "user", "system":
		case "tool":
			role = openai.ChatMessageRoleTool
		default:
			role = openai.ChatMessageRoleUser
		}
		msg := openai.ChatCompletionMessage{Role: role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func ToTools(tools []radium.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		_ = json.Unmarshal(t.Parameters, &params)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func FromResponse(resp openai.ChatCompletionResponse) radium.ModelResponse {
	out := radium.ModelResponse{
		ModelID: resp.Model,
		Usage: &radium.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, radium.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}
