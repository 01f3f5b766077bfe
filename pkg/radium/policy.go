package radium

import "time"

// Action is a policy verdict.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
	ActionAsk   Action = "ask-user"
)

// Priority orders rule precedence. Admin overrides user overrides default,
// in both directions (spec.md §3 invariant d).
type Priority string

const (
	PriorityDefault Priority = "default"
	PriorityUser    Priority = "user"
	PriorityAdmin   Priority = "admin"
)

// priorityRank gives Priority a total order for comparison; higher wins.
var priorityRank = map[Priority]int{
	PriorityDefault: 0,
	PriorityUser:    1,
	PriorityAdmin:   2,
}

// Rank returns this priority's comparison weight.
func (p Priority) Rank() int { return priorityRank[p] }

// PolicyRule is one entry in the compiled rule set: a glob over tool name,
// an optional glob over the space-joined argument vector, an action, and a
// priority used to break ties between matching rules.
type PolicyRule struct {
	Name        string   `json:"name" toml:"name" yaml:"name"`
	ToolPattern string   `json:"tool_pattern" toml:"tool_pattern" yaml:"tool_pattern"`
	ArgPattern  string   `json:"arg_pattern,omitempty" toml:"arg_pattern,omitempty" yaml:"arg_pattern,omitempty"`
	Action      Action   `json:"action" toml:"action" yaml:"action"`
	Priority    Priority `json:"priority,omitempty" toml:"priority,omitempty" yaml:"priority,omitempty"`
	Reason      string   `json:"reason,omitempty" toml:"reason,omitempty" yaml:"reason,omitempty"`
}

// PolicyDecision is the output of a policy evaluation.
type PolicyDecision struct {
	Action      Action        `json:"action"`
	Reason      string        `json:"reason,omitempty"`
	MatchedRule string        `json:"matched_rule,omitempty"`
	Preview     *DryRunPreview `json:"preview,omitempty"`
}

// ApprovalMode is the per-request default used when no rule matches.
type ApprovalMode string

const (
	ApprovalYolo     ApprovalMode = "yolo"
	ApprovalAutoEdit ApprovalMode = "auto-edit"
	ApprovalAsk      ApprovalMode = "ask"
)

// EditClassTools are the tools auto-edit mode allows without asking.
var EditClassTools = map[string]bool{
	"write_file":  true,
	"edit_file":   true,
	"create_file": true,
	"delete_file": true,
}

// DryRunPreview is synthesized for ask-user decisions (spec.md §4.3 step 4).
type DryRunPreview struct {
	ToolName           string   `json:"tool_name"`
	Arguments          []string `json:"arguments"`
	AffectedResources  []string `json:"affected_resources"`
	Details            string   `json:"details,omitempty"`
}

// ConstitutionEntry holds a session's free-form rule strings plus the last
// time they were touched, for TTL eviction (spec.md §3, resolved per
// original_source/policy/constitution.rs: reads refresh the TTL too).
type ConstitutionEntry struct {
	Rules   []string  `json:"rules"`
	Updated time.Time `json:"updated"`
}

const (
	// MaxConstitutionRules is the cap on rules per session; the oldest rule
	// is evicted on overflow.
	MaxConstitutionRules = 50
	// ConstitutionTTL is how long a constitution entry survives without a
	// touching read or write.
	ConstitutionTTL = time.Hour
)
