package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/radium-run/radium/pkg/radium"
)

// runToolCall executes the sub-sequence of spec.md §4.1 step 5 for a single
// tool call: request/selection/policy/before/execute/after/error-recovery,
// in order. It never returns a Go error for tool-level failures (those are
// encoded as an is_error=true ToolResult per spec.md); a Go error return
// means the loop itself cannot continue (e.g. the consumer cancelled while
// an approval was pending).
func (o *Orchestrator) runToolCall(ctx context.Context, state *runState, call radium.ToolCall) (radium.ToolResult, error) {
	o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallRequested, CorrelationID: state.correlationID, ToolCall: &call})

	// Step: ToolSelection hooks may substitute the tool name or arguments.
	if o.hooks != nil {
		result := o.hooks.Dispatch(radium.HookContext{Kind: radium.HookToolSelection, Data: map[string]any{"tool_call": call}})
		if substituted, ok := result.ModifiedData["tool_call"].(radium.ToolCall); ok {
			call = substituted
		}
	}

	argVector := call.ArgumentVector()
	decision := radium.PolicyDecision{Action: radium.ActionAllow}
	if o.policy != nil {
		decision = o.policy.Evaluate(call.Name, argVector, state.sessionID, o.config.ApprovalMode)
	}

	switch decision.Action {
	case radium.ActionDeny:
		result := deniedResult(call, decision.Reason)
		o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallFinished, CorrelationID: state.correlationID, ToolCall: &call, ToolResult: &result, Success: false})
		return result, nil

	case radium.ActionAsk:
		requestID := uuid.NewString()
		o.publish(radium.OrchestrationEvent{Kind: radium.EventApprovalRequired, CorrelationID: state.correlationID, ToolCall: &call, ApprovalRequestID: requestID, Preview: decision.Preview})

		if o.approvals == nil {
			result := deniedResult(call, "no approval channel configured")
			o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallFinished, CorrelationID: state.correlationID, ToolCall: &call, ToolResult: &result, Success: false})
			return result, nil
		}

		approval, err := o.approvals.Await(ctx, requestID)
		if err != nil {
			return radium.ToolResult{}, err
		}
		if o.sessions != nil {
			_ = o.sessions.AppendApproval(ctx, state.sessionID, approval)
		}
		if !approval.Approved {
			result := deniedResult(call, approval.Reason)
			o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallFinished, CorrelationID: state.correlationID, ToolCall: &call, ToolResult: &result, Success: false})
			return result, nil
		}
		// Fall through to execution on approval.
	}

	if o.hooks != nil {
		o.hooks.Dispatch(radium.HookContext{Kind: radium.HookBeforeTool, Data: map[string]any{"tool_call": call}})
	}

	o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallStarted, CorrelationID: state.correlationID, ToolCall: &call})
	if o.sessions != nil {
		_ = o.sessions.AppendToolCall(ctx, state.sessionID, call)
	}

	result := o.execute(ctx, call)

	o.publish(radium.OrchestrationEvent{Kind: radium.EventToolCallFinished, CorrelationID: state.correlationID, ToolCall: &call, ToolResult: &result, Success: !result.IsError})

	if o.hooks != nil {
		afterResult := o.hooks.Dispatch(radium.HookContext{Kind: radium.HookAfterTool, Data: map[string]any{"tool_call": call, "tool_result": result}})
		if modified, ok := afterResult.ModifiedData["tool_result"].(radium.ToolResult); ok {
			result = modified
		}
	}

	if result.IsError {
		result = o.recoverFromError(call, result)
	}

	return result, nil
}

// recoverFromError runs ErrorInterception/ErrorTransformation/ErrorRecovery
// hooks in turn (spec.md §4.1 step 5). Recovery may mark the error handled
// and substitute a synthetic result.
func (o *Orchestrator) recoverFromError(call radium.ToolCall, result radium.ToolResult) radium.ToolResult {
	if o.hooks == nil {
		return result
	}

	stages := []radium.HookType{radium.HookErrorInterception, radium.HookErrorTransformation, radium.HookErrorRecovery}
	for _, stage := range stages {
		r := o.hooks.Dispatch(radium.HookContext{Kind: stage, Data: map[string]any{"tool_call": call, "tool_result": result}})
		if modified, ok := r.ModifiedData["tool_result"].(radium.ToolResult); ok {
			result = modified
		}
	}
	return result
}

func (o *Orchestrator) execute(ctx context.Context, call radium.ToolCall) radium.ToolResult {
	if o.tools == nil || !o.tools.Has(call.Name) {
		return errorResult(call, NewToolError(call.Name, ErrToolNotFound))
	}

	result, err := o.tools.Execute(ctx, call)
	if err != nil {
		return errorResult(call, NewToolError(call.Name, err).WithToolCallID(call.ID))
	}
	return result
}

func deniedResult(call radium.ToolCall, reason string) radium.ToolResult {
	if reason == "" {
		reason = "denied by policy"
	}
	return radium.ToolResult{ToolCallID: call.ID, Success: false, IsError: true, Output: reason}
}

func errorResult(call radium.ToolCall, err error) radium.ToolResult {
	return radium.ToolResult{ToolCallID: call.ID, Success: false, IsError: true, Output: err.Error()}
}

// toolTimeout bounds a single tool execution when the caller does not
// already scope ctx; kept for callers (e.g. internal/tools) that want the
// orchestrator's default rather than configuring their own.
const toolTimeout = 30 * time.Second
