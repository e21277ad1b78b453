package shader

import (
	"fmt"
	"sync"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/internal/cache"
)

// sourceExcerptLen bounds how much shader source a compile-failure log
// line carries.
const sourceExcerptLen = 160

// Registry owns shader descriptors and the compiled program cache for
// one device. Programs are owned exclusively by the registry; callers
// must never Destroy a returned program.
//
// Registry is safe for concurrent use, though in practice a registry
// lives on a single execution context alongside its device.
type Registry struct {
	mu     sync.RWMutex
	dev    gpu.Device
	descs  map[string]*Descriptor
	failed map[string]bool

	programs *cache.Sharded[string, gpu.Program]
}

// NewRegistry creates a registry compiling against the given device.
func NewRegistry(dev gpu.Device) *Registry {
	return &Registry{
		dev:    dev,
		descs:  make(map[string]*Descriptor),
		failed: make(map[string]bool),
		programs: cache.New[string, gpu.Program](0, cache.StringHasher, func(_ string, p gpu.Program) {
			p.Destroy()
		}),
	}
}

// Register adds a descriptor. Registering the same (name, version)
// twice is an error; bump the version instead.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := d.Key()
	if _, ok := r.descs[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.descs[key] = d
	return nil
}

// Descriptor looks up a registered descriptor by name and version.
func (r *Registry) Descriptor(name, version string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name+"@"+version]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrUnknownDescriptor, name, version)
	}
	return d, nil
}

// Descriptors returns every registered descriptor. Used to replay the
// registry into a freshly initialized execution context.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.descs))
	for _, d := range r.descs {
		out = append(out, d)
	}
	return out
}

// GetOrCompile returns the compiled program for (descriptor, variant,
// pass), compiling and caching on first use.
//
// Compile and link failures are not fatal: they are logged once with
// the shader name, variant, pass and a source excerpt, and nil is
// returned. Callers must skip the pass.
func (r *Registry) GetOrCompile(d *Descriptor, variantKey, passID string) gpu.Program {
	key := cacheKey(d, passID, variantKey)

	if p, ok := r.programs.Get(key); ok {
		return p
	}

	r.mu.RLock()
	alreadyFailed := r.failed[key]
	r.mu.RUnlock()
	if alreadyFailed {
		return nil
	}

	p, err := r.compile(d, variantKey, passID)
	if err != nil {
		r.mu.Lock()
		r.failed[key] = true
		r.mu.Unlock()
		compose.Logger().Warn("shader compile failed; pass will be skipped",
			"shader", d.Name,
			"version", d.Version,
			"variant", variantKey,
			"pass", passID,
			"err", err,
			"source", excerpt(fragmentFor(d, passID)))
		return nil
	}

	r.programs.Set(key, p)
	return p
}

// compile resolves sources, injects defines, and hands the pair to the
// device.
func (r *Registry) compile(d *Descriptor, variantKey, passID string) (gpu.Program, error) {
	variant, err := d.variantByKey(variantKey)
	if err != nil {
		return nil, err
	}

	pass, err := d.PassByID(passID)
	if err != nil {
		return nil, err
	}

	vertex := d.Vertex
	fragment := d.Fragment
	if pass != nil {
		fragment = pass.Fragment
		if pass.Vertex != "" {
			vertex = pass.Vertex
		}
	}
	if vertex == "" {
		vertex = FullscreenVertexSource
	}

	var variantDefines map[string]string
	if variant != nil {
		variantDefines = variant.Defines
	}
	vertex = injectDefines(vertex, d.Defines, variantDefines)
	fragment = injectDefines(fragment, d.Defines, variantDefines)

	label := cacheKey(d, passID, variantKey)
	p, err := r.dev.CompileProgram(label, vertex, fragment)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Warm eagerly compiles every program the descriptors can produce:
// the base and each variant of single-pass shaders, and every pass of
// multi-pass shaders. Avoids first-frame compile stalls.
func (r *Registry) Warm(descs []*Descriptor) {
	for _, d := range descs {
		variants := []string{""}
		for _, v := range d.Variants {
			variants = append(variants, v.Key)
		}
		passes := []string{""}
		if len(d.Passes) > 0 {
			passes = passes[:0]
			for _, p := range d.Passes {
				passes = append(passes, p.ID)
			}
		}
		for _, vk := range variants {
			for _, pid := range passes {
				r.GetOrCompile(d, vk, pid)
			}
		}
	}
}

// Clear destroys every cached program and forgets past compile
// failures. Called on GPU context loss before programs are rebuilt
// against the restored context.
func (r *Registry) Clear() {
	r.programs.Clear()
	r.mu.Lock()
	r.failed = make(map[string]bool)
	r.mu.Unlock()
}

// Stats returns program cache statistics.
func (r *Registry) Stats() cache.Stats {
	return r.programs.Stats()
}

// fragmentFor returns the fragment source an invocation would compile,
// for failure logging.
func fragmentFor(d *Descriptor, passID string) string {
	if passID != "" {
		for i := range d.Passes {
			if d.Passes[i].ID == passID {
				return d.Passes[i].Fragment
			}
		}
	}
	return d.Fragment
}

// excerpt truncates source for log output.
func excerpt(src string) string {
	if len(src) <= sourceExcerptLen {
		return src
	}
	return src[:sourceExcerptLen] + "..."
}
