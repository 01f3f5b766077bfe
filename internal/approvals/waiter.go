// Package approvals implements orchestrator.ApprovalWaiter: an in-process,
// channel-based rendezvous between a pending tool call (blocked in
// Await) and whatever surface resolves it (the CLI's approval prompt, or an
// MCP-facing caller answering the forwarded ApprovalRequired event).
//
// Grounded on internal/agent/approval.go's MemoryApprovalStore (an
// in-memory, request-id-keyed table of pending approvals) for the
// bookkeeping shape, reworked from a poll-based store into a blocking
// channel rendezvous because orchestrator.ApprovalWaiter's contract is
// "Await blocks until resolved", not "poll until resolved".
package approvals

import (
	"context"
	"fmt"
	"sync"

	"github.com/radium-run/radium/pkg/radium"
)

// ErrUnknownRequest is returned by Resolve when requestID has no pending
// waiter (already resolved, or never registered).
var ErrUnknownRequest = fmt.Errorf("approvals: unknown request id")

// Waiter is an in-process implementation of orchestrator.ApprovalWaiter.
type Waiter struct {
	mu      sync.Mutex
	pending map[string]chan radium.Approval
}

// NewWaiter constructs an empty Waiter.
func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[string]chan radium.Approval)}
}

// Await blocks until Resolve(requestID, ...) is called or ctx is done,
// whichever happens first.
func (w *Waiter) Await(ctx context.Context, requestID string) (radium.Approval, error) {
	ch := make(chan radium.Approval, 1)
	w.mu.Lock()
	w.pending[requestID] = ch
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.pending, requestID)
		w.mu.Unlock()
	}()

	select {
	case approval := <-ch:
		return approval, nil
	case <-ctx.Done():
		return radium.Approval{}, ctx.Err()
	}
}

// Resolve delivers approval to the goroutine blocked in Await(requestID).
// It is a no-op error if no waiter is currently pending for requestID.
func (w *Waiter) Resolve(requestID string, approval radium.Approval) error {
	w.mu.Lock()
	ch, ok := w.pending[requestID]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	ch <- approval
	return nil
}
