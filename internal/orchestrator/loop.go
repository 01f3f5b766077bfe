package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/radium-run/radium/internal/checkpoint"
	"github.com/radium-run/radium/internal/hooks"
	"github.com/radium-run/radium/internal/policy"
	"github.com/radium-run/radium/internal/providers"
	"github.com/radium-run/radium/pkg/radium"
)

// Config bounds and shapes one orchestrator's tool loop (spec.md §4.1).
type Config struct {
	// MaxIterations caps tool-loop turns; default 10.
	MaxIterations int
	// ApprovalMode feeds the policy engine's no-match default.
	ApprovalMode radium.ApprovalMode
}

// DefaultConfig returns spec.md's defaults: 10 iterations, ask-user.
func DefaultConfig() Config {
	return Config{MaxIterations: 10, ApprovalMode: radium.ApprovalAsk}
}

func sanitizeConfig(c Config) Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.ApprovalMode == "" {
		c.ApprovalMode = radium.ApprovalAsk
	}
	return c
}

// ApprovalWaiter suspends a tool call pending an external approve/deny
// decision, used for ask-user policy outcomes (spec.md §4.1 step 5).
type ApprovalWaiter interface {
	// Await blocks until the consumer resolves requestID, or ctx ends.
	Await(ctx context.Context, requestID string) (radium.Approval, error)
}

// SessionRecorder is the subset of the session manager (spec.md §4.5) the
// orchestrator needs to append durable history as the loop progresses.
type SessionRecorder interface {
	AppendMessage(ctx context.Context, sessionID string, msg radium.Message) error
	AppendToolCall(ctx context.Context, sessionID string, call radium.ToolCall) error
	AppendApproval(ctx context.Context, sessionID string, approval radium.Approval) error
}

// CheckpointWriter persists a resumable snapshot when every provider
// candidate reports QuotaExceeded (spec.md §4.2/§9). A nil writer attached
// to an Orchestrator simply disables checkpointing.
type CheckpointWriter interface {
	Write(state checkpoint.State) (string, error)
}

// Orchestrator drives handle_input/subscribe_events for the whole runtime
// (spec.md §4.1). One Orchestrator serves many concurrent sessions; all
// per-request state lives in a runState built fresh by HandleInput.
type Orchestrator struct {
	provider    Provider
	tools       ToolExecutor
	policy      *policy.Engine
	hooks       *hooks.Registry
	sessions    SessionRecorder
	approvals   ApprovalWaiter
	checkpoints CheckpointWriter
	broadcast   *Broadcaster
	config      Config
	logger      *slog.Logger
}

// New constructs an Orchestrator. Any nil dependency still allows
// construction but a Run will fail fast (ErrNoProvider etc.) rather than
// panic, guarding Run against nil dependencies up front.
func New(provider Provider, tools ToolExecutor, policyEngine *policy.Engine, hookRegistry *hooks.Registry, sessions SessionRecorder, approvals ApprovalWaiter, config Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider:  provider,
		tools:     tools,
		policy:    policyEngine,
		hooks:     hookRegistry,
		sessions:  sessions,
		approvals: approvals,
		broadcast: NewBroadcaster(),
		config:    sanitizeConfig(config),
		logger:    logger,
	}
}

// WithCheckpointWriter attaches the checkpoint writer used when every
// provider candidate reports QuotaExceeded. Returns o for chaining at
// construction time.
func (o *Orchestrator) WithCheckpointWriter(w CheckpointWriter) *Orchestrator {
	o.checkpoints = w
	return o
}

// SubscribeEvents returns a filtered event stream for one correlation id
// (spec.md §4.1 contract: subscribe_events). The returned cancel func must
// be called once the consumer is done to release the channel.
func (o *Orchestrator) SubscribeEvents(correlationID string) (<-chan radium.OrchestrationEvent, func()) {
	return o.broadcast.Subscribe(correlationID)
}

// runState is the mutable, single-request state threaded through one
// HandleInput call (spec.md §4.1's "tool loop").
type runState struct {
	correlationID string
	sessionID     string
	messages      []radium.Message
	iteration     int
}

// HandleInput drives one request to completion (spec.md §4.1 contract:
// handle_input). It emits UserInput immediately, then runs the bounded tool
// loop, publishing every event to subscribers of correlationID. It returns
// once a Done or Error event has been published (invariant: "at least one
// Done or Error per request id").
func (o *Orchestrator) HandleInput(ctx context.Context, correlationID string, sessionID string, agent radium.Agent, input string) error {
	if o.provider == nil {
		return ErrNoProvider
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	state := &runState{correlationID: correlationID, sessionID: sessionID}

	o.publish(radium.OrchestrationEvent{Kind: radium.EventUserInput, CorrelationID: correlationID, Text: input})
	state.messages = append(state.messages, radium.Message{Role: "user", Content: input})
	if o.sessions != nil {
		if err := o.sessions.AppendMessage(ctx, sessionID, state.messages[len(state.messages)-1]); err != nil {
			o.logger.Warn("failed to persist inbound message", "error", err)
		}
	}

	for state.iteration < o.config.MaxIterations {
		select {
		case <-ctx.Done():
			return o.finishCancelled(state)
		default:
		}

		done, err := o.runIteration(ctx, state, agent)
		if err != nil {
			if errors.Is(err, providers.ErrAllProvidersExhausted) {
				o.writeCheckpointOnExhaustion(state, err)
				o.finishError(state, radium.ErrorKindAllProvidersExhausted, err.Error())
				return err
			}
			o.finishError(state, radium.ErrorKindToolError, err.Error())
			return err
		}
		if done {
			return nil
		}
		state.iteration++
	}

	o.publish(radium.OrchestrationEvent{
		Kind: radium.EventDone, CorrelationID: correlationID, FinishReason: radium.FinishMaxIterations,
	})
	return ErrMaxIterations
}

// runIteration executes one pass of spec.md §4.1's numbered steps. It
// returns done=true once the model has produced a tool-free response
// (terminal "stop" condition).
func (o *Orchestrator) runIteration(ctx context.Context, state *runState, agent radium.Agent) (bool, error) {
	// Step 1: BeforeModel hooks.
	if o.hooks != nil {
		result := o.hooks.Dispatch(radium.HookContext{Kind: radium.HookBeforeModel, Data: map[string]any{"messages": state.messages}})
		if !result.ShouldContinue {
			o.finishError(state, radium.ErrorKindToolError, hookShortCircuitMessage(result))
			return false, fmt.Errorf("before_model hook short-circuited: %s", hookShortCircuitMessage(result))
		}
	}

	// Step 2: invoke the provider.
	req := radium.ModelCallRequest{Model: agent.Models.Primary, Messages: state.messages, Tools: o.toolSchemas()}
	resp, err := o.provider.Complete(ctx, req)
	if err != nil {
		return false, fmt.Errorf("provider call failed: %w", err)
	}

	// Step 3: AfterModel hooks.
	if o.hooks != nil {
		result := o.hooks.Dispatch(radium.HookContext{Kind: radium.HookAfterModel, Data: map[string]any{"response": resp}})
		if !result.ShouldContinue {
			o.finishError(state, radium.ErrorKindToolError, hookShortCircuitMessage(result))
			return false, fmt.Errorf("after_model hook short-circuited: %s", hookShortCircuitMessage(result))
		}
	}

	// Step 4: no tool calls -> done.
	if len(resp.ToolCalls) == 0 {
		o.publish(radium.OrchestrationEvent{Kind: radium.EventAssistantMessage, CorrelationID: state.correlationID, Text: resp.Content})
		state.messages = append(state.messages, radium.Message{Role: "assistant", Content: resp.Content})
		o.publish(radium.OrchestrationEvent{Kind: radium.EventDone, CorrelationID: state.correlationID, FinishReason: radium.FinishStop})
		return true, nil
	}

	// Step 5: append the assistant message exactly once, then execute tool
	// calls in order (tie-break: sequential, provider-returned order).
	state.messages = append(state.messages, radium.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})

	for _, call := range resp.ToolCalls {
		result, err := o.runToolCall(ctx, state, call)
		if err != nil {
			return false, err
		}
		state.messages = append(state.messages, radium.Message{Role: "tool", ToolResults: []radium.ToolResult{result}})
	}

	return false, nil
}

func hookShortCircuitMessage(r radium.HookResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return "hook declined to continue"
}

func (o *Orchestrator) toolSchemas() []radium.ToolSchema {
	if o.tools == nil {
		return nil
	}
	return o.tools.Schemas()
}

func (o *Orchestrator) publish(ev radium.OrchestrationEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	o.broadcast.Publish(ev)
}

func (o *Orchestrator) finishError(state *runState, kind radium.ErrorKind, message string) {
	o.publish(radium.OrchestrationEvent{
		Kind: radium.EventError, CorrelationID: state.correlationID,
		ErrorKind: kind, ErrorMessage: message,
	})
}

func (o *Orchestrator) finishCancelled(state *runState) error {
	o.finishError(state, radium.ErrorKindCancelled, "request cancelled by consumer")
	return ErrCancelled
}

// writeCheckpointOnExhaustion persists a resumable snapshot once every
// provider candidate has reported QuotaExceeded (spec.md §4.2/§9). It is a
// no-op if no CheckpointWriter is attached.
func (o *Orchestrator) writeCheckpointOnExhaustion(state *runState, err error) {
	if o.checkpoints == nil {
		return
	}

	var candidates []checkpoint.Candidate
	var exhausted *providers.ExhaustedError
	if errors.As(err, &exhausted) {
		candidates = make([]checkpoint.Candidate, len(exhausted.Candidates))
		for i, c := range exhausted.Candidates {
			candidates[i] = checkpoint.Candidate{Name: c.Name, Exhausted: c.Exhausted}
		}
	}

	cp := checkpoint.State{
		CorrelationID: state.correlationID,
		SessionID:     state.sessionID,
		Input:         inputFromMessages(state.messages),
		Messages:      append([]radium.Message(nil), state.messages...),
		Candidates:    candidates,
		Reason:        err.Error(),
	}
	if _, writeErr := o.checkpoints.Write(cp); writeErr != nil {
		o.logger.Warn("failed to write exhaustion checkpoint", "correlation_id", state.correlationID, "error", writeErr)
	}
}

// inputFromMessages recovers the turn's original user input for the
// checkpoint's Input field.
func inputFromMessages(msgs []radium.Message) string {
	for _, m := range msgs {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}
