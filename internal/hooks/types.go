// Package hooks implements the Radium hook system (spec.md §4.7): a
// registry of named, prioritized, typed extension points dispatched in
// deterministic priority order with short-circuit semantics.
package hooks

import "github.com/radium-run/radium/pkg/radium"

// Priority levels give configuration files named bands to read naturally,
// but any uint32 value is accepted.
const (
	PriorityHighest uint32 = 0
	PriorityHigh    uint32 = 25
	PriorityNormal  uint32 = 50
	PriorityLow     uint32 = 75
	PriorityLowest  uint32 = 100
)

// HandlerFunc adapts a plain function to the radium.Hook interface.
type HandlerFunc func(ctx radium.HookContext) radium.HookResult

// funcHook is the concrete Hook implementation backing Register.
type funcHook struct {
	name     string
	typ      radium.HookType
	priority uint32
	fn       HandlerFunc
}

func (h *funcHook) Name() string         { return h.name }
func (h *funcHook) Type() radium.HookType { return h.typ }
func (h *funcHook) Priority() uint32      { return h.priority }

func (h *funcHook) Execute(ctx radium.HookContext) radium.HookResult {
	return h.fn(ctx)
}

// registration is the internal bookkeeping record for one registered hook.
type registration struct {
	hook   radium.Hook
	source string
}
