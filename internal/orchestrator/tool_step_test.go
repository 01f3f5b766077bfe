package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/radium-run/radium/internal/hooks"
	"github.com/radium-run/radium/internal/policy"
	"github.com/radium-run/radium/pkg/radium"
)

type fakeApprovals struct {
	approve bool
	reason  string
}

func (f *fakeApprovals) Await(ctx context.Context, requestID string) (radium.Approval, error) {
	return radium.Approval{ToolCallID: requestID, Approved: f.approve, Reason: f.reason}, nil
}

func TestRunToolCallDeniedByPolicySkipsExecution(t *testing.T) {
	rules := []radium.PolicyRule{{Name: "deny-echo", ToolPattern: "echo", Action: radium.ActionDeny, Reason: "blocked"}}
	o := New(&fakeProvider{}, &fakeTools{}, policy.NewEngine(policy.NewSnapshot(rules), nil), hooks.NewRegistry(nil), fakeSessions{}, nil, DefaultConfig(), nil)

	state := &runState{correlationID: "c1", sessionID: "s1"}
	call := radium.ToolCall{ID: "tc1", Name: "echo", Arguments: json.RawMessage(`{}`)}

	result, err := o.runToolCall(context.Background(), state, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected denied result to be an error, got %+v", result)
	}
}

func TestRunToolCallAskUserWaitsForApproval(t *testing.T) {
	o := New(&fakeProvider{}, &fakeTools{}, policy.NewEngine(nil, nil), hooks.NewRegistry(nil), fakeSessions{}, &fakeApprovals{approve: true}, DefaultConfig(), nil)

	state := &runState{correlationID: "c1", sessionID: "s1"}
	call := radium.ToolCall{ID: "tc1", Name: "echo", Arguments: json.RawMessage(`{}`)}

	result, err := o.runToolCall(context.Background(), state, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected approved call to execute successfully, got %+v", result)
	}
}

func TestRunToolCallAskUserDenied(t *testing.T) {
	o := New(&fakeProvider{}, &fakeTools{}, policy.NewEngine(nil, nil), hooks.NewRegistry(nil), fakeSessions{}, &fakeApprovals{approve: false, reason: "not now"}, DefaultConfig(), nil)

	state := &runState{correlationID: "c1", sessionID: "s1"}
	call := radium.ToolCall{ID: "tc1", Name: "echo", Arguments: json.RawMessage(`{}`)}

	result, err := o.runToolCall(context.Background(), state, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || result.Output != "not now" {
		t.Fatalf("expected denial reason surfaced, got %+v", result)
	}
}

func TestRunToolCallErrorRecoveryHookSubstitutesResult(t *testing.T) {
	reg := hooks.NewRegistry(nil)
	mustRegisterHook(t, reg, hooks.NewFunc("recover", radium.HookErrorRecovery, hooks.PriorityNormal, func(ctx radium.HookContext) radium.HookResult {
		return radium.HookResult{
			Success:        true,
			ShouldContinue: true,
			ModifiedData:   map[string]any{"tool_result": radium.ToolResult{ToolCallID: "tc1", Success: true, Output: "recovered"}},
		}
	}))

	tools := &fakeTools{results: map[string]radium.ToolResult{"echo": {ToolCallID: "tc1", IsError: true, Output: "boom"}}}
	o := New(&fakeProvider{}, tools, policy.NewEngine(nil, nil), reg, fakeSessions{}, nil, DefaultConfig(), nil)
	o.config.ApprovalMode = radium.ApprovalYolo

	state := &runState{correlationID: "c1", sessionID: "s1"}
	call := radium.ToolCall{ID: "tc1", Name: "echo", Arguments: json.RawMessage(`{}`)}

	result, err := o.runToolCall(context.Background(), state, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError || result.Output != "recovered" {
		t.Fatalf("expected recovery hook to substitute result, got %+v", result)
	}
}

func mustRegisterHook(t *testing.T, r *hooks.Registry, h radium.Hook) {
	t.Helper()
	if _, err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
