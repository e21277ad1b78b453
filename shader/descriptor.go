// Package shader owns shader source descriptors and the compiled
// program registry. Descriptors are immutable once registered and are
// identified by (name, version); compiled programs are cached per
// (name, version, pass, variant) and rebuilt after GPU context loss.
package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/compose/gpu"
)

// Descriptor errors.
var (
	// ErrDuplicate is returned when registering a (name, version) pair
	// that is already present.
	ErrDuplicate = errors.New("shader: descriptor already registered")

	// ErrUnknownDescriptor is returned when looking up a descriptor
	// that was never registered.
	ErrUnknownDescriptor = errors.New("shader: unknown descriptor")

	// ErrUnknownPass is returned when an invocation names a pass the
	// descriptor does not declare.
	ErrUnknownPass = errors.New("shader: unknown pass")
)

// Pass is one stage of a multi-pass shader. Inputs name other passes
// of the same descriptor whose outputs this pass consumes; they define
// the edges of the pass graph.
type Pass struct {
	// ID is the pass identifier, unique within the descriptor.
	ID string

	// Fragment is the pass's fragment source.
	Fragment string

	// Vertex optionally overrides the descriptor's vertex source.
	Vertex string

	// Inputs lists pass IDs whose output textures this pass reads.
	Inputs []string
}

// Variant is a named compile-time specialization of a shader.
type Variant struct {
	// Key identifies the variant in cache keys and invocations.
	Key string

	// Defines are additional compile-time constants for this variant.
	Defines map[string]string
}

// Descriptor describes one shader: sources, compile-time defines,
// variants, and optional multi-pass structure. Descriptors are
// treated as immutable after Registry.Register.
type Descriptor struct {
	// Name and Version identify the descriptor.
	Name    string
	Version string

	// Vertex is the shared vertex source; empty selects the built-in
	// fullscreen vertex stage.
	Vertex string

	// Fragment is the single-pass fragment source. Ignored when
	// Passes is non-empty.
	Fragment string

	// Defines are compile-time constants injected into every stage.
	Defines map[string]string

	// Variants are optional compile-time specializations.
	Variants []Variant

	// Passes declares the multi-pass graph, in declared order.
	Passes []Pass

	// Defaults are uniform values applied when an invocation does not
	// override them.
	Defaults gpu.Uniforms
}

// Key returns the descriptor identity "name@version".
func (d *Descriptor) Key() string {
	return d.Name + "@" + d.Version
}

// PassByID returns the declared pass, or an error for unknown IDs.
// The empty ID selects single-pass descriptors.
func (d *Descriptor) PassByID(id string) (*Pass, error) {
	if id == "" {
		if len(d.Passes) > 0 {
			return nil, fmt.Errorf("%w: %s has passes, pass id required", ErrUnknownPass, d.Key())
		}
		return nil, nil
	}
	for i := range d.Passes {
		if d.Passes[i].ID == id {
			return &d.Passes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s::%s", ErrUnknownPass, d.Key(), id)
}

// variantByKey returns the variant, or nil for the empty key.
func (d *Descriptor) variantByKey(key string) (*Variant, error) {
	if key == "" {
		return nil, nil
	}
	for i := range d.Variants {
		if d.Variants[i].Key == key {
			return &d.Variants[i], nil
		}
	}
	return nil, fmt.Errorf("%w: variant %q of %s", ErrUnknownDescriptor, key, d.Key())
}

// cacheKey builds the program cache key "name@version::pass::variant".
func cacheKey(d *Descriptor, passID, variantKey string) string {
	return d.Key() + "::" + passID + "::" + variantKey
}

// injectDefines prepends the merged descriptor and variant defines to
// the source as module-scope constants, so variants select code paths
// at compile time.
func injectDefines(src string, groups ...map[string]string) string {
	merged := make(map[string]string)
	for _, g := range groups {
		for k, v := range g {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return src
	}

	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "const %s = %s;\n", name, merged[name])
	}
	b.WriteString(src)
	return b.String()
}

// PassInvocation is one scheduled execution of a shader pass: which
// descriptor, variant and pass to run, which textures feed its
// channels, and the uniforms layered over the descriptor defaults.
// Adjustment plugins produce these; the render pipeline executes them.
type PassInvocation struct {
	// Shader and Version name the registered descriptor.
	Shader  string
	Version string

	// Variant selects a compile-time variant ("" = base).
	Variant string

	// Pass selects the descriptor pass ("" for single-pass shaders).
	Pass string

	// Channels are extra texture bindings beyond the pipeline's
	// standard channel0..3/previousPass wiring.
	Channels []gpu.ChannelBinding

	// Uniforms override the descriptor defaults for this invocation.
	Uniforms gpu.Uniforms
}
