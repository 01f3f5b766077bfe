package venice

import (
	"testing"
)

func TestNewDefaultsNameWhenEmpty(t *testing.T) {
	a := New("test-key", "")
	if a.Name() != "venice" {
		t.Fatalf("got %q, want %q", a.Name(), "venice")
	}
}

func TestNewHonorsExplicitName(t *testing.T) {
	a := New("test-key", "venice-premium")
	if a.Name() != "venice-premium" {
		t.Fatalf("got %q, want %q", a.Name(), "venice-premium")
	}
}

func TestNewPointsAtVeniceBaseURL(t *testing.T) {
	a := New("test-key", "venice")
	if a.client == nil {
		t.Fatal("expected a non-nil underlying client")
	}
}
