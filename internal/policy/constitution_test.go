package policy

import (
	"testing"
	"time"

	"github.com/radium-run/radium/pkg/radium"
)

func TestConstitutionAddAndCheckDeny(t *testing.T) {
	m := NewConstitutionManager()
	m.AddRule("s1", "never delete production data")

	denied, reason := m.CheckDeny("s1", "delete_file", []string{"Production Data backup"})
	if !denied {
		t.Fatal("expected deny on case-insensitive substring match")
	}
	if reason == "" {
		t.Fatal("expected a non-empty reason")
	}
}

func TestConstitutionEvictsOldestOverCap(t *testing.T) {
	m := NewConstitutionManager()
	for i := 0; i < radium.MaxConstitutionRules+5; i++ {
		m.AddRule("s1", ruleName(i))
	}

	rules, ok := m.Get("s1")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if len(rules) != radium.MaxConstitutionRules {
		t.Fatalf("expected cap of %d, got %d", radium.MaxConstitutionRules, len(rules))
	}
	if rules[0] != ruleName(5) {
		t.Fatalf("expected oldest 5 evicted, first rule = %q", rules[0])
	}
}

func TestConstitutionTTLExpiresAndReadsRefresh(t *testing.T) {
	m := NewConstitutionManager()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	m.AddRule("s1", "rule one")

	clock = clock.Add(radium.ConstitutionTTL - time.Minute)
	if _, ok := m.Get("s1"); !ok {
		t.Fatal("expected entry to still be alive just before TTL")
	}

	// The read above refreshed Updated, so advancing by another
	// (TTL - 1 minute) should still keep it alive.
	clock = clock.Add(radium.ConstitutionTTL - time.Minute)
	if _, ok := m.Get("s1"); !ok {
		t.Fatal("expected read to have refreshed the TTL")
	}

	clock = clock.Add(radium.ConstitutionTTL + time.Minute)
	if _, ok := m.Get("s1"); ok {
		t.Fatal("expected entry to expire once untouched past the TTL")
	}
}

func ruleName(i int) string {
	return "rule-" + string(rune('a'+i%26))
}
