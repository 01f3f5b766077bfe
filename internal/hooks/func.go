package hooks

import "github.com/radium-run/radium/pkg/radium"

// NewFunc builds a radium.Hook from a plain function, the common case for
// hooks defined inline by a caller (telemetry, retries, logging) rather than
// as a standalone type.
func NewFunc(name string, typ radium.HookType, priority uint32, fn HandlerFunc) radium.Hook {
	return &funcHook{name: name, typ: typ, priority: priority, fn: fn}
}
