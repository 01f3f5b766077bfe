package hooks

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/radium-run/radium/pkg/radium"
)

// Registry stores hooks keyed by name and grouped by radium.HookType.
// Registration validates unique names per type. Dispatch is deterministic:
// ascending by priority, equal priorities preserve registration order
// (spec.md §4.7).
type Registry struct {
	mu       sync.RWMutex
	byType   map[radium.HookType][]*registration
	byName   map[radium.HookType]map[string]*registration
	logger   *slog.Logger
	seq      int // tie-break for stable sort across calls to Register
}

// NewRegistry creates an empty hook registry. A nil logger falls back to
// slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byType: make(map[radium.HookType][]*registration),
		byName: make(map[radium.HookType]map[string]*registration),
		logger: logger,
	}
}

// RegisterOption customizes Register.
type RegisterOption func(*registration)

// WithSource records where a hook was registered from (for diagnostics).
func WithSource(source string) RegisterOption {
	return func(r *registration) { r.source = source }
}

// Register adds hook under its own Type(), keyed by its own Name(). It
// returns an error if the name is already registered for that type.
func (r *Registry) Register(hook radium.Hook, opts ...RegisterOption) (string, error) {
	reg := &registration{hook: hook}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	typ := hook.Type()
	if r.byName[typ] == nil {
		r.byName[typ] = make(map[string]*registration)
	}
	if _, exists := r.byName[typ][hook.Name()]; exists {
		return "", fmt.Errorf("hooks: name %q already registered for type %s", hook.Name(), typ)
	}

	r.byName[typ][hook.Name()] = reg
	r.byType[typ] = append(r.byType[typ], reg)
	r.sortLocked(typ)

	id := uuid.NewString()
	r.logger.Debug("hook registered", "id", id, "name", hook.Name(), "type", typ, "priority", hook.Priority())
	return id, nil
}

// Unregister removes a hook by type and name.
func (r *Registry) Unregister(typ radium.HookType, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byName[typ] == nil {
		return false
	}
	if _, ok := r.byName[typ][name]; !ok {
		return false
	}
	delete(r.byName[typ], name)

	hooks := r.byType[typ]
	for i, reg := range hooks {
		if reg.hook.Name() == name {
			r.byType[typ] = append(hooks[:i], hooks[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) sortLocked(typ radium.HookType) {
	hooks := r.byType[typ]
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].hook.Priority() < hooks[j].hook.Priority()
	})
}

// Dispatch runs every hook registered for typ, in ascending priority order,
// invoking each one's Execute(ctx). An error returned by a hook does not
// abort the chain — it is logged and the chain proceeds — unless the hook
// also set ShouldContinue=false. When a hook sets ShouldContinue=false,
// Dispatch stops the remaining chain and returns that hook's result
// immediately (the short-circuit contract spec.md §4.7 requires and the
// teacher's own registry lacked).
//
// When every hook runs to completion, Dispatch returns the last hook's
// result (or a default continue-result if typ has no registered hooks).
func (r *Registry) Dispatch(ctx radium.HookContext) radium.HookResult {
	r.mu.RLock()
	hooks := make([]*registration, len(r.byType[ctx.Kind]))
	copy(hooks, r.byType[ctx.Kind])
	r.mu.RUnlock()

	result := radium.ContinueResult()
	for _, reg := range hooks {
		result = r.callLocked(reg, ctx)
		if !result.ShouldContinue {
			r.logger.Debug("hook short-circuited chain", "name", reg.hook.Name(), "type", ctx.Kind)
			return result
		}
	}
	return result
}

// callLocked invokes a single hook, recovering from panics into a failed,
// chain-continuing result so one misbehaving hook cannot wedge the
// orchestrator.
func (r *Registry) callLocked(reg *registration, ctx radium.HookContext) (result radium.HookResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("hook panicked", "name", reg.hook.Name(), "type", ctx.Kind, "panic", rec)
			result = radium.HookResult{Success: false, ShouldContinue: true, Err: fmt.Errorf("hook %q panicked: %v", reg.hook.Name(), rec)}
		}
	}()

	result = reg.hook.Execute(ctx)
	if result.Err != nil {
		r.logger.Warn("hook returned error", "name", reg.hook.Name(), "type", ctx.Kind, "error", result.Err)
	}
	return result
}

// RegisteredNames returns the names of hooks registered for typ, in
// dispatch order.
func (r *Registry) RegisteredNames(typ radium.HookType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byType[typ]))
	for _, reg := range r.byType[typ] {
		names = append(names, reg.hook.Name())
	}
	return names
}

// Clear removes every registered hook.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType = make(map[radium.HookType][]*registration)
	r.byName = make(map[radium.HookType]map[string]*registration)
}
