package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/radium-run/radium/pkg/radium"
)

// ConstitutionManager holds a per-session list of free-form deny rules, each
// session capped at radium.MaxConstitutionRules entries (oldest evicted
// first) and expiring after radium.ConstitutionTTL of inactivity. Both
// reads and writes refresh the TTL, ported exactly from
// original_source/crates/radium-core/src/policy/constitution.rs.
type ConstitutionManager struct {
	mu       sync.Mutex
	sessions map[string]*radium.ConstitutionEntry
	now      func() time.Time
}

// NewConstitutionManager constructs an empty manager.
func NewConstitutionManager() *ConstitutionManager {
	return &ConstitutionManager{
		sessions: make(map[string]*radium.ConstitutionEntry),
		now:      time.Now,
	}
}

// AddRule appends a free-form rule to a session's constitution, evicting the
// oldest rule first if the session is already at capacity.
func (m *ConstitutionManager) AddRule(sessionID, rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if !ok {
		entry = &radium.ConstitutionEntry{}
		m.sessions[sessionID] = entry
	}
	entry.Rules = append(entry.Rules, rule)
	if len(entry.Rules) > radium.MaxConstitutionRules {
		entry.Rules = entry.Rules[len(entry.Rules)-radium.MaxConstitutionRules:]
	}
	entry.Updated = m.now()
}

// Get returns a copy of a session's current rules, refreshing its TTL. A
// missing or stale session returns (nil, false) without creating an entry.
func (m *ConstitutionManager) Get(sessionID string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.Updated) > radium.ConstitutionTTL {
		delete(m.sessions, sessionID)
		return nil, false
	}
	entry.Updated = m.now()

	rules := make([]string, len(entry.Rules))
	copy(rules, entry.Rules)
	return rules, true
}

// CheckDeny reports whether any of a session's constitution rules deny the
// given tool invocation. Matching is case-insensitive substring match
// against the tool name and joined argument vector, resolving spec.md's
// open question on matching semantics.
func (m *ConstitutionManager) CheckDeny(sessionID, toolName string, args []string) (bool, string) {
	rules, ok := m.Get(sessionID)
	if !ok || len(rules) == 0 {
		return false, ""
	}

	haystack := strings.ToLower(toolName + " " + strings.Join(args, " "))
	for _, rule := range rules {
		if strings.Contains(haystack, strings.ToLower(rule)) {
			return true, fmt.Sprintf("constitution rule: %s", rule)
		}
	}
	return false, ""
}

// cleanupStale removes every session whose entry has outlived its TTL.
func (m *ConstitutionManager) cleanupStale() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, entry := range m.sessions {
		if now.Sub(entry.Updated) > radium.ConstitutionTTL {
			delete(m.sessions, id)
		}
	}
}

// RunSweeper periodically evicts stale sessions until ctx is cancelled. The
// sweep interval matches the TTL, so no entry outlives it by more than one
// sweep cycle.
func (m *ConstitutionManager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(radium.ConstitutionTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupStale()
		}
	}
}
