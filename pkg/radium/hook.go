package radium

// HookType partitions the hook extension points named in spec.md §4.7.
type HookType string

const (
	HookBeforeModel           HookType = "before_model"
	HookAfterModel            HookType = "after_model"
	HookBeforeTool            HookType = "before_tool"
	HookAfterTool             HookType = "after_tool"
	HookToolSelection         HookType = "tool_selection"
	HookErrorInterception     HookType = "error_interception"
	HookErrorTransformation   HookType = "error_transformation"
	HookErrorRecovery         HookType = "error_recovery"
	HookTelemetryCollection   HookType = "telemetry_collection"
	HookCustomLogging         HookType = "custom_logging"
	HookMetricsAggregation    HookType = "metrics_aggregation"
	HookPerformanceMonitoring HookType = "performance_monitoring"
)

// HookContext is the free-form payload passed to a hook's Execute method.
// Kind mirrors the dispatching HookType so a hook registered against
// multiple types can branch; Data carries whatever the dispatch site
// chooses to expose (a ModelCallRequest, a ToolCall, an error, ...).
type HookContext struct {
	Kind HookType
	Data map[string]any
}

// Get returns Data[key] and whether it was present.
func (c HookContext) Get(key string) (any, bool) {
	v, ok := c.Data[key]
	return v, ok
}

// HookResult is what a hook's Execute returns. ShouldContinue=false stops
// the remaining chain for that dispatch (spec.md §4.7): for Before hooks it
// replaces the model/tool call with ModifiedData; for After hooks it
// replaces the post-processing result.
type HookResult struct {
	Success        bool
	ShouldContinue bool
	ModifiedData   map[string]any
	Err            error
}

// ContinueResult is the common "ran fine, keep going" result.
func ContinueResult() HookResult {
	return HookResult{Success: true, ShouldContinue: true}
}

// Hook is a named, prioritized, typed extension point.
type Hook interface {
	Name() string
	Type() HookType
	Priority() uint32
	Execute(ctx HookContext) HookResult
}
