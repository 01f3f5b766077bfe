// Package orchestrator implements the Agent Orchestrator & Execution Loop
// (spec.md §4.1): handle_input/subscribe_events, the bounded tool loop, and
// the per-iteration hook/policy/tool dispatch sequence.
//
// Grounded on internal/agent/loop.go (the phase state machine and channel-
// streamed Run), internal/agent/errors.go (the error taxonomy below), and
// internal/agent/tool_exec.go (per-call timeout/attempt bookkeeping).
package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMaxIterations is returned when the tool loop exhausts its bound.
	ErrMaxIterations = errors.New("orchestrator: max iterations exceeded")
	// ErrCancelled is returned when the context is cancelled mid-run.
	ErrCancelled = errors.New("orchestrator: run cancelled")
	// ErrNoProvider indicates no provider was configured for the run.
	ErrNoProvider = errors.New("orchestrator: no provider configured")
	// ErrAgentNotFound indicates the requested agent id does not resolve.
	ErrAgentNotFound = errors.New("orchestrator: agent not found")
	// ErrToolNotFound indicates a requested tool is not registered.
	ErrToolNotFound = errors.New("orchestrator: tool not found")
	// ErrToolTimeout indicates a tool call exceeded its deadline.
	ErrToolTimeout = errors.New("orchestrator: tool execution timed out")
	// ErrApprovalDenied indicates the consumer rejected an ask-user tool call.
	ErrApprovalDenied = errors.New("orchestrator: approval denied")
	// ErrAllProvidersExhausted indicates every provider in the failover chain failed.
	ErrAllProvidersExhausted = errors.New("orchestrator: all providers exhausted")
)

// ToolErrorType categorizes a tool failure for retry and recovery decisions.
type ToolErrorType string

const (
	ToolErrorNotFound     ToolErrorType = "not_found"
	ToolErrorInvalidInput ToolErrorType = "invalid_input"
	ToolErrorTimeout      ToolErrorType = "timeout"
	ToolErrorNetwork      ToolErrorType = "network"
	ToolErrorPermission   ToolErrorType = "permission"
	ToolErrorRateLimit    ToolErrorType = "rate_limit"
	ToolErrorExecution    ToolErrorType = "execution"
	ToolErrorPanic        ToolErrorType = "panic"
	ToolErrorUnknown      ToolErrorType = "unknown"
)

// IsRetryable reports whether retrying after this error class may help.
func (t ToolErrorType) IsRetryable() bool {
	switch t {
	case ToolErrorTimeout, ToolErrorNetwork, ToolErrorRateLimit:
		return true
	default:
		return false
	}
}

// ToolError is a structured, classified tool execution failure.
type ToolError struct {
	Type       ToolErrorType
	ToolName   string
	ToolCallID string
	Message    string
	Cause      error
	Retryable  bool
	Attempts   int
}

func (e *ToolError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[tool:%s]", e.Type))
	if e.ToolName != "" {
		parts = append(parts, e.ToolName)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if e.Attempts > 1 {
		parts = append(parts, fmt.Sprintf("(attempts=%d)", e.Attempts))
	}
	return strings.Join(parts, " ")
}

func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError builds a ToolError, classifying cause from its message.
func NewToolError(toolName string, cause error) *ToolError {
	e := &ToolError{ToolName: toolName, Cause: cause, Type: ToolErrorUnknown, Attempts: 1}
	if cause != nil {
		e.Message = cause.Error()
		e.Type = classifyToolError(cause)
		e.Retryable = e.Type.IsRetryable()
	}
	return e
}

func (e *ToolError) WithToolCallID(id string) *ToolError { e.ToolCallID = id; return e }
func (e *ToolError) WithAttempts(n int) *ToolError        { e.Attempts = n; return e }

func classifyToolError(err error) ToolErrorType {
	if err == nil {
		return ToolErrorUnknown
	}
	if errors.Is(err, ErrToolNotFound) {
		return ToolErrorNotFound
	}
	if errors.Is(err, ErrToolTimeout) {
		return ToolErrorTimeout
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return ToolErrorTimeout
	case strings.Contains(s, "connection") || strings.Contains(s, "network") || strings.Contains(s, "refused") || strings.Contains(s, "unreachable"):
		return ToolErrorNetwork
	case strings.Contains(s, "rate limit") || strings.Contains(s, "too many requests") || strings.Contains(s, "429"):
		return ToolErrorRateLimit
	case strings.Contains(s, "permission") || strings.Contains(s, "forbidden") || strings.Contains(s, "unauthorized"):
		return ToolErrorPermission
	case strings.Contains(s, "invalid") || strings.Contains(s, "validation") || strings.Contains(s, "required") || strings.Contains(s, "missing"):
		return ToolErrorInvalidInput
	default:
		return ToolErrorExecution
	}
}

// LoopPhase names a distinct step of the per-iteration state machine.
type LoopPhase string

const (
	PhaseInit         LoopPhase = "init"
	PhaseBeforeModel  LoopPhase = "before_model"
	PhaseStream       LoopPhase = "stream"
	PhaseAfterModel   LoopPhase = "after_model"
	PhaseExecuteTools LoopPhase = "execute_tools"
	PhaseContinue     LoopPhase = "continue"
	PhaseComplete     LoopPhase = "complete"
)

// LoopError carries phase/iteration context alongside the underlying cause.
type LoopError struct {
	Phase     LoopPhase
	Iteration int
	Message   string
	Cause     error
}

func (e *LoopError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("orchestrator: %s (iteration %d): %s", e.Phase, e.Iteration, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("orchestrator: %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
	}
	return fmt.Sprintf("orchestrator: %s (iteration %d)", e.Phase, e.Iteration)
}

func (e *LoopError) Unwrap() error { return e.Cause }
