// Package adjust maps adjustment layers onto shader pass invocations.
// Each adjustment kind registers a plugin that translates sampled layer
// parameters into the uniforms of one or more shader passes; the
// renderer executes the resulting invocations without knowing which
// adjustment produced them.
package adjust

import (
	"sync"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/shader"
)

// Plugin converts sampled parameters of one adjustment layer into the
// shader invocations that realize it. Implementations must be
// stateless; a plugin instance is shared across renderers.
type Plugin interface {
	// Kind is the adjustment kind the plugin serves.
	Kind() compose.AdjustmentKind

	// Params are the parameter specifications the plugin consumes.
	// The keyframe sampler clamps sampled values to these domains
	// before MapParams sees them.
	Params() []compose.ParamSpec

	// MapParams builds the pass invocations for the given sampled
	// parameters. Missing parameters fall back to the declared defaults.
	MapParams(params map[string]compose.Value) []shader.PassInvocation
}

var (
	mu      sync.RWMutex
	plugins = make(map[compose.AdjustmentKind]Plugin)
)

// Register adds a plugin. Later registrations for the same kind win,
// so applications can override a built-in.
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()
	plugins[p.Kind()] = p
}

// Lookup returns the plugin for a kind, or nil when none is
// registered. Renderers skip adjustment layers with no plugin.
func Lookup(kind compose.AdjustmentKind) Plugin {
	mu.RLock()
	defer mu.RUnlock()
	return plugins[kind]
}

// Kinds returns the registered adjustment kinds.
func Kinds() []compose.AdjustmentKind {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]compose.AdjustmentKind, 0, len(plugins))
	for k := range plugins {
		out = append(out, k)
	}
	return out
}

// paramOr returns the sampled value for name, or the declared default.
func paramOr(params map[string]compose.Value, specs []compose.ParamSpec, name string) compose.Value {
	if v, ok := params[name]; ok {
		return v
	}
	for _, s := range specs {
		if s.Name == name {
			return s.Default
		}
	}
	return compose.Value{}
}
