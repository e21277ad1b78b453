package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/shader"
)

// Pipeline errors.
var (
	// ErrPassCycle is returned when a multi-pass shader's input edges
	// form a cycle.
	ErrPassCycle = errors.New("render: pass graph contains a cycle")
)

// FrameInfo carries the per-frame values every pass receives as
// standard uniforms.
type FrameInfo struct {
	// Time is the document time in seconds.
	Time float64

	// Frame is the frame counter.
	Frame uint64

	// Seed is a per-frame random seed in [0, 1).
	Seed float32
}

// Pipeline executes shader passes against one device: single draws,
// chains of invocations through ping-pong scratch targets, and
// multi-pass dependency graphs. Owned by the execution context.
type Pipeline struct {
	dev  gpu.Device
	fbos *FBOManager
	reg  *shader.Registry

	// ping and pong are document-sized scratch targets reused across
	// invocation chains.
	ping, pong *FBO
}

// NewPipeline creates a pipeline over the device, its FBO manager, and
// its shader registry.
func NewPipeline(dev gpu.Device, fbos *FBOManager, reg *shader.Registry) *Pipeline {
	return &Pipeline{dev: dev, fbos: fbos, reg: reg}
}

// standardUniforms builds the uniforms every pass receives: target
// resolution and texel size, document time, frame counter, and the
// frame's random seed.
func standardUniforms(target *FBO, fi FrameInfo) gpu.Uniforms {
	w := float32(target.Texture.Width())
	h := float32(target.Texture.Height())
	return gpu.Uniforms{
		"resolution": gpu.Vec2(w, h),
		"texelSize":  gpu.Vec2(1/w, 1/h),
		"time":       gpu.Float(float32(fi.Time)),
		"frame":      gpu.Int(int32(fi.Frame)),
		"randomSeed": gpu.Float(fi.Seed),
	}
}

// RunSingle executes one pass invocation into target with the given
// channel bindings. An input that is also the draw's target fails with
// ErrFeedbackLoop before any draw is issued.
//
// A program that failed to compile is not an error here: the pass is
// skipped (the registry already logged the failure), target keeps its
// prior contents, and drew reports false.
func (p *Pipeline) RunSingle(inv shader.PassInvocation, channels []gpu.ChannelBinding, target *FBO, fi FrameInfo) (drew bool, err error) {
	d, err := p.reg.Descriptor(inv.Shader, inv.Version)
	if err != nil {
		return false, err
	}

	all := make([]gpu.ChannelBinding, 0, len(channels)+len(inv.Channels))
	all = append(all, channels...)
	all = append(all, inv.Channels...)
	for _, c := range all {
		if c.Texture == target.Texture {
			return false, fmt.Errorf("%w: channel %q while rendering %s", ErrFeedbackLoop, c.Name, inv.Shader)
		}
	}

	prog := p.reg.GetOrCompile(d, inv.Variant, inv.Pass)
	if prog == nil {
		return false, nil
	}

	uniforms := gpu.Merge(d.Defaults, standardUniforms(target, fi))
	uniforms = gpu.Merge(uniforms, inv.Uniforms)

	p.fbos.Bind(target)
	if err := p.dev.Draw(prog, uniforms, all); err != nil {
		return false, err
	}
	return true, nil
}

// RunDAG executes every pass of a multi-pass descriptor in dependency
// order. uniforms maps pass IDs to that pass's uniform overrides;
// source feeds channel0 of passes with no declared inputs; the final
// pass in topological order renders into target, earlier passes render
// into scratch targets sized like target.
func (p *Pipeline) RunDAG(name, version string, uniforms map[string]gpu.Uniforms, source gpu.Texture, target *FBO, fi FrameInfo) error {
	d, err := p.reg.Descriptor(name, version)
	if err != nil {
		return err
	}
	if len(d.Passes) == 0 {
		return fmt.Errorf("%w: %s has no passes", shader.ErrUnknownPass, d.Key())
	}

	order, err := topoSort(d.Passes)
	if err != nil {
		return fmt.Errorf("%s: %w", d.Key(), err)
	}

	// Intermediate outputs, destroyed on return. The last pass writes
	// straight into target.
	outputs := make(map[string]*FBO, len(order))
	defer func() {
		for _, f := range outputs {
			if f != target {
				p.fbos.Destroy(f)
			}
		}
	}()

	prev := source
	for i, pass := range order {
		out := target
		if i < len(order)-1 {
			out, err = p.fbos.Create(d.Name+"/"+pass.ID, target.Texture.Width(), target.Texture.Height())
			if err != nil {
				return err
			}
		}
		outputs[pass.ID] = out

		var channels []gpu.ChannelBinding
		if len(pass.Inputs) == 0 {
			channels = append(channels, gpu.ChannelBinding{Name: "channel0", Texture: source})
		} else {
			for j, in := range pass.Inputs {
				dep, ok := outputs[in]
				if !ok {
					return fmt.Errorf("%w: pass %q input %q", shader.ErrUnknownPass, pass.ID, in)
				}
				channels = append(channels, gpu.ChannelBinding{
					Name:    fmt.Sprintf("channel%d", j),
					Texture: dep.Texture,
				})
			}
		}
		// The prior pass's output is always reachable as previousPass,
		// whether or not it is a declared input.
		channels = append(channels, gpu.ChannelBinding{Name: "previousPass", Texture: prev})

		inv := shader.PassInvocation{
			Shader:   name,
			Version:  version,
			Pass:     pass.ID,
			Uniforms: uniforms[pass.ID],
		}
		drew, err := p.RunSingle(inv, channels, out, fi)
		if err != nil {
			return err
		}
		if !drew {
			// Skipped pass: downstream passes read transparent black
			// instead of undefined memory.
			p.fbos.Clear(out, compose.Transparent)
		}
		prev = out.Texture
	}
	return nil
}

// topoSort orders passes so every pass runs after all of its inputs
// (Kahn's algorithm). Declared order breaks ties, keeping execution
// deterministic. Returns ErrPassCycle when the edges form a cycle.
func topoSort(passes []shader.Pass) ([]shader.Pass, error) {
	indegree := make(map[string]int, len(passes))
	byID := make(map[string]shader.Pass, len(passes))
	for _, pass := range passes {
		byID[pass.ID] = pass
		if _, ok := indegree[pass.ID]; !ok {
			indegree[pass.ID] = 0
		}
	}
	dependents := make(map[string][]string)
	for _, pass := range passes {
		for _, in := range pass.Inputs {
			if _, ok := byID[in]; !ok {
				return nil, fmt.Errorf("%w: pass %q input %q", shader.ErrUnknownPass, pass.ID, in)
			}
			indegree[pass.ID]++
			dependents[in] = append(dependents[in], pass.ID)
		}
	}

	var ready []string
	for _, pass := range passes {
		if indegree[pass.ID] == 0 {
			ready = append(ready, pass.ID)
		}
	}

	order := make([]shader.Pass, 0, len(passes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, byID[id])
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(passes) {
		return nil, ErrPassCycle
	}
	return order, nil
}

// ensureScratch (re)allocates the ping-pong scratch targets at w x h.
func (p *Pipeline) ensureScratch(w, h int) error {
	var err error
	if p.ping == nil {
		if p.ping, err = p.fbos.Create("pipeline/ping", w, h); err != nil {
			return err
		}
	} else if err = p.fbos.Resize(p.ping, w, h); err != nil {
		return err
	}
	if p.pong == nil {
		if p.pong, err = p.fbos.Create("pipeline/pong", w, h); err != nil {
			return err
		}
	} else if err = p.fbos.Resize(p.pong, w, h); err != nil {
		return err
	}
	return nil
}

// Run executes a plugin's invocation list over source, returning the
// texture holding the final result. Consecutive invocations of the
// same multi-pass shader execute as one dependency graph; single-pass
// invocations chain through the ping-pong scratch targets, each
// reading the previous result as channel0.
//
// The returned texture is one of the pipeline's scratch targets; it is
// valid until the next Run call.
func (p *Pipeline) Run(invs []shader.PassInvocation, source gpu.Texture, w, h int, fi FrameInfo) (gpu.Texture, error) {
	if err := p.ensureScratch(w, h); err != nil {
		return nil, err
	}

	cur := source
	out := p.ping
	other := p.pong

	for i := 0; i < len(invs); {
		inv := invs[i]
		d, err := p.reg.Descriptor(inv.Shader, inv.Version)
		if err != nil {
			return nil, err
		}

		drew := true
		if len(d.Passes) > 0 {
			// Fold the run of invocations on this descriptor into one
			// graph execution.
			uniforms := make(map[string]gpu.Uniforms)
			j := i
			for ; j < len(invs) && invs[j].Shader == inv.Shader && invs[j].Version == inv.Version; j++ {
				uniforms[invs[j].Pass] = invs[j].Uniforms
			}
			if err := p.RunDAG(inv.Shader, inv.Version, uniforms, cur, out, fi); err != nil {
				return nil, err
			}
			i = j
		} else {
			channels := []gpu.ChannelBinding{
				{Name: "channel0", Texture: cur},
				{Name: "previousPass", Texture: cur},
			}
			drew, err = p.RunSingle(inv, channels, out, fi)
			if err != nil {
				return nil, err
			}
			i++
		}

		if drew {
			cur = out.Texture
			out, other = other, out
		}
	}

	p.fbos.Unbind()
	return cur, nil
}
