package approvals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radium-run/radium/pkg/radium"
)

func TestAwaitBlocksUntilResolved(t *testing.T) {
	w := NewWaiter()
	done := make(chan radium.Approval, 1)

	go func() {
		approval, err := w.Await(context.Background(), "req-1")
		if err != nil {
			t.Errorf("Await: %v", err)
		}
		done <- approval
	}()

	time.Sleep(20 * time.Millisecond)
	if err := w.Resolve("req-1", radium.Approval{ToolCallID: "call-1", Approved: true}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	select {
	case approval := <-done:
		if !approval.Approved || approval.ToolCallID != "call-1" {
			t.Fatalf("unexpected approval: %+v", approval)
		}
	case <-time.After(time.Second):
		t.Fatal("Await never returned")
	}
}

func TestAwaitReturnsOnContextCancellation(t *testing.T) {
	w := NewWaiter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Await(ctx, "req-2"); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

func TestResolveUnknownRequestReturnsError(t *testing.T) {
	w := NewWaiter()
	if err := w.Resolve("never-registered", radium.Approval{}); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("expected ErrUnknownRequest, got %v", err)
	}
}
