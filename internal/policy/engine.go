// Package policy implements the Radium Policy Engine (spec.md §4.3): rule
// compilation and glob matching, approval-mode defaults, a per-session
// constitution pre-check, dry-run preview synthesis, and a suggestion
// pipeline built from historical approval outcomes.
//
// Follows an ordered allow/deny evaluation model with glob matching and
// profile/group/alias conventions for rule organization, and
// original_source/crates/radium-core/src/policy/{constitution,dry_run}.rs
// for exact constitution and dry-run semantics.
package policy

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/radium-run/radium/pkg/radium"
)

// compiledRule is a PolicyRule with its patterns ready for repeated
// matching; spec.md §4.3 step 1 ("compile the ordered rule set on load").
type compiledRule struct {
	radium.PolicyRule
	insertionOrder int
}

// Snapshot is an immutable, ordered view of the compiled rule set. Mutation
// produces a new Snapshot; in-flight evaluations keep using the snapshot
// captured at request start (spec.md §5 copy-on-write discipline).
type Snapshot struct {
	rules []compiledRule
}

// NewSnapshot compiles rules in the order given, which becomes each rule's
// insertion-order tie-break at equal priority (spec.md §4.3 step 1).
func NewSnapshot(rules []radium.PolicyRule) *Snapshot {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		if r.Priority == "" {
			r.Priority = radium.PriorityDefault
		}
		compiled[i] = compiledRule{PolicyRule: r, insertionOrder: i}
	}
	return &Snapshot{rules: compiled}
}

// selectRule returns the highest-priority rule matching toolName/argVector,
// breaking ties by insertion order (spec.md §4.3 step 2).
func (s *Snapshot) selectRule(toolName string, argVector []string) (compiledRule, bool) {
	argJoined := strings.Join(argVector, " ")

	var best compiledRule
	found := false
	for _, rule := range s.rules {
		if !matchesGlob(rule.ToolPattern, toolName) {
			continue
		}
		if rule.ArgPattern != "" && !matchesGlob(rule.ArgPattern, argJoined) {
			continue
		}
		if !found {
			best, found = rule, true
			continue
		}
		if rule.Priority.Rank() > best.Priority.Rank() {
			best = rule
		}
		// Equal priority: keep the earlier insertion (best already holds it
		// because we only overwrite on strictly-greater rank above).
	}
	return best, found
}

// Engine computes a deterministic PolicyDecision for every tool invocation
// (spec.md §4.3).
type Engine struct {
	snapshot     atomic.Pointer[Snapshot]
	constitution *ConstitutionManager
	logger       *slog.Logger
}

// NewEngine constructs a policy engine over an initial rule snapshot.
func NewEngine(initial *Snapshot, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if initial == nil {
		initial = NewSnapshot(nil)
	}
	e := &Engine{constitution: NewConstitutionManager(), logger: logger}
	e.snapshot.Store(initial)
	return e
}

// Reload atomically replaces the rule snapshot (spec.md §6: "loaded at
// startup and on explicit reload").
func (e *Engine) Reload(rules []radium.PolicyRule) {
	e.snapshot.Store(NewSnapshot(rules))
}

// Constitution exposes the engine's per-session constitution manager.
func (e *Engine) Constitution() *ConstitutionManager { return e.constitution }

// Evaluate computes a PolicyDecision for one tool invocation, implementing
// spec.md §4.3 steps 2-5 in order: constitution pre-check (step 5, but
// applied first since a constitution deny always wins), rule match (steps
// 2-3), and dry-run preview synthesis on ask-user (step 4).
func (e *Engine) Evaluate(toolName string, args []string, sessionID string, mode radium.ApprovalMode) radium.PolicyDecision {
	if denied, reason := e.constitution.CheckDeny(sessionID, toolName, args); denied {
		e.logger.Debug("policy denied by constitution", "tool", toolName, "session", sessionID, "reason", reason)
		return radium.PolicyDecision{Action: radium.ActionDeny, Reason: reason}
	}

	snapshot := e.snapshot.Load()
	rule, matched := snapshot.selectRule(toolName, args)

	var decision radium.PolicyDecision
	if matched {
		decision = radium.PolicyDecision{Action: rule.Action, Reason: rule.Reason, MatchedRule: rule.Name}
	} else {
		decision = radium.PolicyDecision{Action: defaultAction(mode, toolName)}
	}

	if decision.Action == radium.ActionAsk {
		preview := GeneratePreview(toolName, args)
		decision.Preview = &preview
	}

	return decision
}

// defaultAction applies the approval mode's default when no rule matches
// (spec.md §4.3 step 3).
func defaultAction(mode radium.ApprovalMode, toolName string) radium.Action {
	switch mode {
	case radium.ApprovalYolo:
		return radium.ActionAllow
	case radium.ApprovalAutoEdit:
		if radium.EditClassTools[toolName] {
			return radium.ActionAllow
		}
		return radium.ActionAsk
	case radium.ApprovalAsk:
		return radium.ActionAsk
	default:
		return radium.ActionAsk
	}
}
