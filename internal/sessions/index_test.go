package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/radium-run/radium/pkg/radium"
)

func TestIndexUpsertAndQuery(t *testing.T) {
	idx, err := NewIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	sessions := []*radium.Session{
		{ID: "s1", AgentID: "agent-a", State: radium.SessionActive, Timestamps: radium.Timestamps{LastActive: time.Unix(1, 0)}},
		{ID: "s2", AgentID: "agent-a", State: radium.SessionCompleted, Timestamps: radium.Timestamps{LastActive: time.Unix(2, 0)}},
		{ID: "s3", AgentID: "agent-b", State: radium.SessionActive, Timestamps: radium.Timestamps{LastActive: time.Unix(3, 0)}},
	}
	for _, s := range sessions {
		if err := idx.Upsert(ctx, s); err != nil {
			t.Fatalf("Upsert %s: %v", s.ID, err)
		}
	}

	ids, err := idx.Query(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if ids[0] != "s3" {
		t.Fatalf("expected newest last_active first, got %v", ids)
	}

	byAgent, err := idx.Query(ctx, ListOptions{AgentID: "agent-a"})
	if err != nil {
		t.Fatalf("Query by agent: %v", err)
	}
	if len(byAgent) != 2 {
		t.Fatalf("expected 2 ids for agent-a, got %d", len(byAgent))
	}

	byState, err := idx.Query(ctx, ListOptions{State: radium.SessionCompleted})
	if err != nil {
		t.Fatalf("Query by state: %v", err)
	}
	if len(byState) != 1 || byState[0] != "s2" {
		t.Fatalf("expected only s2 for completed state, got %v", byState)
	}
}

func TestIndexQueryPaginates(t *testing.T) {
	idx, err := NewIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s := &radium.Session{
			ID:         string(rune('a' + i)),
			Timestamps: radium.Timestamps{LastActive: time.Unix(int64(i), 0)},
		}
		if err := idx.Upsert(ctx, s); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	page1, err := idx.Query(ctx, ListOptions{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("Query page 1: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("expected 2 ids on page 1, got %d", len(page1))
	}

	page2, err := idx.Query(ctx, ListOptions{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("Query page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("expected 2 ids on page 2, got %d", len(page2))
	}
	if page1[0] == page2[0] {
		t.Fatal("expected different pages to return different ids")
	}
}

func TestIndexRemove(t *testing.T) {
	idx, err := NewIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	s := &radium.Session{ID: "s1", Timestamps: radium.Timestamps{LastActive: time.Unix(1, 0)}}
	if err := idx.Upsert(ctx, s); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := idx.Remove(ctx, "s1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	ids, err := idx.Query(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids after removal, got %v", ids)
	}
}

func TestIndexUpsertOverwritesExisting(t *testing.T) {
	idx, err := NewIndex(t.TempDir())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	s := &radium.Session{ID: "s1", AgentID: "agent-a", State: radium.SessionActive, Timestamps: radium.Timestamps{LastActive: time.Unix(1, 0)}}
	if err := idx.Upsert(ctx, s); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	s.State = radium.SessionCompleted
	s.LastActive = time.Unix(2, 0)
	if err := idx.Upsert(ctx, s); err != nil {
		t.Fatalf("Upsert (update): %v", err)
	}

	ids, err := idx.Query(ctx, ListOptions{State: radium.SessionCompleted})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("expected updated row to reflect new state, got %v", ids)
	}
}
