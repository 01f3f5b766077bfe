// Package telemetry wires the Hook System's telemetry extension points
// (spec.md §4.7 — telemetry_collection, metrics_aggregation,
// performance_monitoring, plus the model/tool lifecycle hooks the
// orchestrator already dispatches) into Prometheus metrics and OpenTelemetry
// spans, so every model call and tool execution is observed without the
// orchestrator itself knowing telemetry exists.
//
// Grounded on internal/observability/metrics.go and tracing.go for the
// underlying Prometheus/OTel wrappers (kept as-is: a generic, domain-neutral
// metrics/tracing facade needs no Radium-specific rework) and
// internal/hooks/types.go's EventType/HookType categories for which
// extension point each recorder attaches to.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/radium-run/radium/internal/hooks"
	"github.com/radium-run/radium/internal/observability"
	"github.com/radium-run/radium/pkg/radium"
)

// Collector attaches hook-driven metric and span recording to a Registry.
// It is safe for concurrent use.
type Collector struct {
	metrics *observability.Metrics
	tracer  *observability.Tracer

	mu         sync.Mutex
	toolStart  map[string]time.Time
	toolSpan   map[string]trace.Span
	modelStart time.Time
	modelSpan  trace.Span
}

// NewCollector builds a Collector over an already-constructed Metrics/Tracer
// pair. A nil tracer disables span recording; metrics recording always runs
// (Metrics itself degrades to the no-op default registry when unused).
func NewCollector(metrics *observability.Metrics, tracer *observability.Tracer) *Collector {
	return &Collector{
		metrics:   metrics,
		tracer:    tracer,
		toolStart: make(map[string]time.Time),
		toolSpan:  make(map[string]trace.Span),
	}
}

// Register attaches the collector's recorders to registry under the hook
// types the orchestrator dispatches for the model and tool lifecycle.
func (c *Collector) Register(registry *hooks.Registry) error {
	for _, reg := range []struct {
		typ  radium.HookType
		name string
		fn   hooks.HandlerFunc
	}{
		{radium.HookBeforeModel, "telemetry.before_model", c.beforeModel},
		{radium.HookAfterModel, "telemetry.after_model", c.afterModel},
		{radium.HookBeforeTool, "telemetry.before_tool", c.beforeTool},
		{radium.HookAfterTool, "telemetry.after_tool", c.afterTool},
	} {
		hook := &namedHook{name: reg.name, typ: reg.typ, priority: hooks.PriorityLowest, fn: reg.fn}
		if _, err := registry.Register(hook); err != nil {
			return err
		}
	}
	return nil
}

// namedHook adapts a HandlerFunc to radium.Hook with a fixed name/type,
// registered at the lowest priority so telemetry observes the final
// modified data (if any earlier hook short-circuited the chain) without
// itself ever stopping it.
type namedHook struct {
	name     string
	typ      radium.HookType
	priority uint32
	fn       hooks.HandlerFunc
}

func (h *namedHook) Name() string          { return h.name }
func (h *namedHook) Type() radium.HookType { return h.typ }
func (h *namedHook) Priority() uint32      { return h.priority }
func (h *namedHook) Execute(ctx radium.HookContext) radium.HookResult {
	return h.fn(ctx)
}

func (c *Collector) beforeModel(ctx radium.HookContext) radium.HookResult {
	c.mu.Lock()
	c.modelStart = time.Now()
	if c.tracer != nil {
		_, span := c.tracer.Start(context.Background(), "model.call", observability.SpanOptions{
			Kind: trace.SpanKindClient,
		})
		c.modelSpan = span
	}
	c.mu.Unlock()
	return radium.ContinueResult()
}

func (c *Collector) afterModel(ctx radium.HookContext) radium.HookResult {
	c.mu.Lock()
	started := c.modelStart
	span := c.modelSpan
	c.modelSpan = nil
	c.mu.Unlock()

	provider, model := "unknown", "unknown"
	status := "success"
	var usage *radium.TokenUsage
	if raw, ok := ctx.Get("response"); ok {
		if resp, ok := raw.(radium.ModelResponse); ok {
			model = resp.ModelID
			usage = resp.Usage
			if p, ok := resp.Metadata["provider"].(string); ok {
				provider = p
			}
		}
	}

	duration := time.Since(started).Seconds()
	if c.metrics != nil {
		prompt, completion := 0, 0
		if usage != nil {
			prompt, completion = usage.InputTokens, usage.OutputTokens
		}
		c.metrics.RecordLLMRequest(provider, model, status, duration, prompt, completion)
	}
	if span != nil {
		span.SetAttributes(attribute.String("llm.provider", provider), attribute.String("llm.model", model))
		span.End()
	}
	return radium.ContinueResult()
}

func (c *Collector) beforeTool(ctx radium.HookContext) radium.HookResult {
	call, ok := toolCallFrom(ctx)
	if !ok {
		return radium.ContinueResult()
	}

	c.mu.Lock()
	c.toolStart[call.ID] = time.Now()
	if c.tracer != nil {
		_, span := c.tracer.TraceToolExecution(context.Background(), call.Name)
		c.toolSpan[call.ID] = span
	}
	c.mu.Unlock()
	return radium.ContinueResult()
}

func (c *Collector) afterTool(ctx radium.HookContext) radium.HookResult {
	call, ok := toolCallFrom(ctx)
	if !ok {
		return radium.ContinueResult()
	}

	c.mu.Lock()
	started, hadStart := c.toolStart[call.ID]
	span := c.toolSpan[call.ID]
	delete(c.toolStart, call.ID)
	delete(c.toolSpan, call.ID)
	c.mu.Unlock()
	if !hadStart {
		started = time.Now()
	}

	status := "success"
	if result, ok := ctx.Get("tool_result"); ok {
		if r, ok := result.(radium.ToolResult); ok && (r.IsError || !r.Success) {
			status = "error"
		}
	}

	duration := time.Since(started).Seconds()
	if c.metrics != nil {
		c.metrics.RecordToolExecution(call.Name, status, duration)
	}
	if span != nil {
		if status == "error" && c.tracer != nil {
			c.tracer.RecordError(span, fmt.Errorf("tool %q reported an error result", call.Name))
		}
		span.End()
	}
	return radium.ContinueResult()
}

func toolCallFrom(ctx radium.HookContext) (radium.ToolCall, bool) {
	raw, ok := ctx.Get("tool_call")
	if !ok {
		return radium.ToolCall{}, false
	}
	call, ok := raw.(radium.ToolCall)
	return call, ok
}
