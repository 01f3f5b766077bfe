// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to the
// providers.Provider contract, translating pkg/radium's provider-agnostic
// call shape to and from the Messages API.
//
// Follows an LLMProvider-style adapter contract, adapted to a
// whole-response Complete instead of a streaming channel.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/pkg/radium"
)

// Adapter wraps an anthropic.Client as a providers.Provider.
type Adapter struct {
	client anthropic.Client
	name   string
}

// New constructs an Adapter from an API key. name defaults to "anthropic"
// and is what the failover chain's circuit breaker and cost tracker key on.
func New(apiKey string, name string) *Adapter {
	if name == "" {
		name = "anthropic"
	}
	return &Adapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		name:   name,
	}
}

func (a *Adapter) Name() string { return a.name }

// Complete issues one non-streaming Messages API call.
func (a *Adapter) Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokensOrDefault(req.Parameters.MaxTokens)),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return radium.ModelResponse{}, a.translateError(err)
	}

	return fromAnthropicMessage(msg), nil
}

// translateError maps anthropic-sdk-go's *anthropic.Error into spec.md
// §4.2's error taxonomy: HTTP 429 (rate-limit-exceeded) and the
// overloaded/insufficient-credits error types become a
// providers.QuotaExceeded the failover chain fails over on; everything
// else is wrapped as-is so it bubbles up or terminates the turn untouched.
func (a *Adapter) translateError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &providers.QuotaExceeded{Provider: a.name, Message: apiErr.Error()}
	}
	return fmt.Errorf("anthropic: %w", err)
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func toAnthropicMessages(msgs []radium.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func toAnthropicTools(tools []radium.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(t.Parameters, &schema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func fromAnthropicMessage(msg *anthropic.Message) radium.ModelResponse {
	resp := radium.ModelResponse{ModelID: string(msg.Model)}
	if msg.Usage.InputTokens != 0 || msg.Usage.OutputTokens != 0 {
		resp.Usage = &radium.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		}
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += variant.Text
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(variant.Input)
			resp.ToolCalls = append(resp.ToolCalls, radium.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}
	return resp
}
