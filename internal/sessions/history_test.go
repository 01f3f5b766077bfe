package sessions

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestHistoryManagerRecordAndWindow(t *testing.T) {
	hm, err := NewHistoryManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := hm.Record(ctx, "session-1", Interaction{
			Goal:   fmt.Sprintf("goal-%d", i),
			Plan:   fmt.Sprintf("plan-%d", i),
			Output: fmt.Sprintf("output-%d", i),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	window, err := hm.Window(ctx, "session-1")
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(window))
	}
	if window[0].Goal != "goal-0" || window[2].Goal != "goal-2" {
		t.Fatalf("unexpected ordering: %+v", window)
	}
}

func TestHistoryManagerTrimsToMaxInteractions(t *testing.T) {
	hm, err := NewHistoryManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < maxInteractions+5; i++ {
		err := hm.Record(ctx, "session-1", Interaction{Goal: fmt.Sprintf("goal-%d", i)})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	window, err := hm.Window(ctx, "session-1")
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window) != maxInteractions {
		t.Fatalf("expected window capped at %d, got %d", maxInteractions, len(window))
	}
	if window[0].Goal != "goal-5" {
		t.Fatalf("expected oldest entries dropped, got first=%s", window[0].Goal)
	}
}

func TestHistoryManagerSummarizeReturnsLastWindow(t *testing.T) {
	hm, err := NewHistoryManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < maxInteractions; i++ {
		err := hm.Record(ctx, "session-1", Interaction{
			Goal:   fmt.Sprintf("goal-%d", i),
			Plan:   fmt.Sprintf("plan-%d", i),
			Output: fmt.Sprintf("output-%d", i),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summary, err := hm.Summarize(ctx, "session-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if strings.Count(summary, "goal:") != summaryWindow {
		t.Fatalf("expected %d goals in summary, got %q", summaryWindow, summary)
	}
	if !strings.Contains(summary, fmt.Sprintf("goal: goal-%d", maxInteractions-1)) {
		t.Fatalf("expected summary to include the most recent interaction: %q", summary)
	}
	if strings.Contains(summary, "goal: goal-0\n") {
		t.Fatalf("expected summary to exclude the oldest interactions: %q", summary)
	}
}

func TestHistoryManagerSummarizeEmptyWindow(t *testing.T) {
	hm, err := NewHistoryManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}

	summary, err := hm.Summarize(context.Background(), "unknown-session")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary for an unknown session, got %q", summary)
	}
}

func TestHistoryManagerRehydratesFromDiskOnFreshInstance(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewHistoryManager(dir)
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}
	if err := first.Record(ctx, "session-1", Interaction{Goal: "goal-0"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	second, err := NewHistoryManager(dir)
	if err != nil {
		t.Fatalf("NewHistoryManager (second): %v", err)
	}
	window, err := second.Window(ctx, "session-1")
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window) != 1 || window[0].Goal != "goal-0" {
		t.Fatalf("expected rehydrated window from disk, got %+v", window)
	}
}

func TestHistoryManagerSessionsAreIsolated(t *testing.T) {
	hm, err := NewHistoryManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewHistoryManager: %v", err)
	}
	ctx := context.Background()

	if err := hm.Record(ctx, "session-a", Interaction{Goal: "a"}); err != nil {
		t.Fatalf("Record a: %v", err)
	}
	if err := hm.Record(ctx, "session-b", Interaction{Goal: "b"}); err != nil {
		t.Fatalf("Record b: %v", err)
	}

	windowA, err := hm.Window(ctx, "session-a")
	if err != nil {
		t.Fatalf("Window a: %v", err)
	}
	if len(windowA) != 1 || windowA[0].Goal != "a" {
		t.Fatalf("expected session-a's own window, got %+v", windowA)
	}
}
