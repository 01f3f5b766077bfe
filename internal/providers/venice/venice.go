// Package venice adapts Venice AI's OpenAI-compatible completion API to the
// providers.Provider contract.
//
// Venice's base URL and privacy-mode framing are layered on top of
// internal/providers/openai's translation helpers, since Venice's wire
// format is the OpenAI chat-completion shape with a different base URL —
// no separate client library exists for it.
package venice

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/internal/providers/openai"
	"github.com/radium-run/radium/pkg/radium"
)

// baseURL is Venice AI's OpenAI-compatible API root.
const baseURL = "https://api.venice.ai/api/v1"

// Adapter wraps an openai.Client pointed at Venice's endpoint.
type Adapter struct {
	client *openaisdk.Client
	name   string
}

// New constructs an Adapter from a Venice API key.
func New(apiKey string, name string) *Adapter {
	if name == "" {
		name = "venice"
	}
	cfg := openaisdk.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Adapter{client: openaisdk.NewClientWithConfig(cfg), name: name}
}

func (a *Adapter) Name() string { return a.name }

// Complete issues one non-streaming chat completion call against Venice's
// OpenAI-compatible endpoint, reusing internal/providers/openai's request
// and response translation since the wire shape is identical.
func (a *Adapter) Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error) {
	chatReq := openaisdk.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  openai.ToMessages(req.System, req.Messages),
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
		chatReq.Tools = openai.ToTools(req.Tools)
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return radium.ModelResponse{}, a.translateError(err)
	}
	return openai.FromResponse(resp), nil
}

// translateError maps go-openai's *openai.APIError into spec.md §4.2's
// error taxonomy, the same way internal/providers/openai does, since
// Venice speaks the identical wire shape.
func (a *Adapter) translateError(err error) error {
	var apiErr *openaisdk.APIError
	if errors.As(err, &apiErr) && isQuotaError(apiErr) {
		return &providers.QuotaExceeded{Provider: a.name, Message: apiErr.Message}
	}
	return fmt.Errorf("venice: %w", err)
}

func isQuotaError(apiErr *openaisdk.APIError) bool {
	if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	switch code := apiErr.Code.(type) {
	case string:
		return code == "insufficient_quota" || code == "rate_limit_exceeded" || code == "billing_hard_limit_reached"
	}
	return false
}
