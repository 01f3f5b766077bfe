package openai

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/radium-run/radium/pkg/radium"
)

func TestToMessagesIncludesSystemPrompt(t *testing.T) {
	msgs := ToMessages("be helpful", []radium.Message{{Role: "user", Content: "hi"}})
	if len(msgs) != 2 || msgs[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("got %+v", msgs)
	}
}

func TestToToolsTranslatesSchema(t *testing.T) {
	tools := []radium.ToolSchema{{Name: "read_file", Description: "reads a file", Parameters: json.RawMessage(`{"type":"object"}`)}}
	out := ToTools(tools)
	if len(out) != 1 || out[0].Function.Name != "read_file" {
		t.Fatalf("got %+v", out)
	}
}

func TestFromResponseExtractsToolCalls(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Model: "gpt-test",
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Content: "",
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Function: openai.FunctionCall{Name: "read_file", Arguments: `{"path":"a.txt"}`},
				}},
			},
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5},
	}

	out := FromResponse(resp)
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "read_file" {
		t.Fatalf("got %+v", out)
	}
	if out.Usage.InputTokens != 10 || out.Usage.OutputTokens != 5 {
		t.Fatalf("got %+v", out.Usage)
	}
}
