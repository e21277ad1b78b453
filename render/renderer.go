package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/adjust"
	"github.com/gogpu/compose/anim"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/internal/cache"
	"github.com/gogpu/compose/shader"
)

// opacitySpec samples a layer's animated opacity.
var opacitySpec = compose.ParamSpec{
	Name:    "opacity",
	Kind:    compose.ValueScalar,
	Domain:  compose.Domain{Min: 0, Max: 100},
	Default: compose.Scalar(100),
}

// Renderer composites layer stacks into a document-sized result. It
// draws image, solid and group layers into scratch targets and blends
// them over the accumulated base; adjustment layers run their plugin's
// shader passes over the base instead of contributing pixels.
//
// A renderer is owned by one execution context: its device, FBO
// manager, shader registry and pipeline all live on that context's
// goroutine.
type Renderer struct {
	dev     gpu.Device
	fbos    *FBOManager
	reg     *shader.Registry
	pipe    *Pipeline
	sampler *anim.Sampler

	// textures caches uploaded source images by content signature.
	textures *cache.Sharded[string, gpu.Texture]

	// whiteMask stands in for maskTexture when a layer has no mask.
	whiteMask gpu.Texture

	result *FBO
	frame  uint64
}

// NewRenderer creates a renderer over the device. The registry must
// already hold the built-in shader descriptors.
func NewRenderer(dev gpu.Device, reg *shader.Registry, sampler *anim.Sampler) (*Renderer, error) {
	fbos := NewFBOManager(dev)
	r := &Renderer{
		dev:     dev,
		fbos:    fbos,
		reg:     reg,
		pipe:    NewPipeline(dev, fbos, reg),
		sampler: sampler,
		textures: cache.New[string, gpu.Texture](0, cache.StringHasher, func(_ string, t gpu.Texture) {
			t.Destroy()
		}),
	}

	white, err := dev.CreateTexture("renderer/white-mask", 1, 1)
	if err != nil {
		return nil, fmt.Errorf("render: allocate mask placeholder: %w", err)
	}
	if err := dev.Upload(white, []byte{0xff, 0xff, 0xff, 0xff}); err != nil {
		return nil, fmt.Errorf("render: fill mask placeholder: %w", err)
	}
	r.whiteMask = white
	return r, nil
}

// FBOs exposes the renderer's FBO manager.
func (r *Renderer) FBOs() *FBOManager { return r.fbos }

// Sampler exposes the renderer's keyframe sampler.
func (r *Renderer) Sampler() *anim.Sampler { return r.sampler }

// TextureCacheStats returns the source texture cache statistics.
func (r *Renderer) TextureCacheStats() cache.Stats { return r.textures.Stats() }

// RenderFrame composites the document at its current time. The
// returned FBO is owned by the renderer and stays valid until the next
// RenderFrame or Close.
func (r *Renderer) RenderFrame(doc *compose.Document) (*FBO, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("render: document size %dx%d", doc.Width, doc.Height)
	}

	r.frame++
	fi := FrameInfo{
		Time:  doc.Time,
		Frame: r.frame,
		Seed:  frameSeed(r.frame),
	}

	var err error
	if r.result == nil {
		if r.result, err = r.fbos.Create("renderer/result", doc.Width, doc.Height); err != nil {
			return nil, err
		}
	} else if err = r.fbos.Resize(r.result, doc.Width, doc.Height); err != nil {
		return nil, err
	}

	if err := r.renderStack(doc, doc.Layers, r.result, fi, 0); err != nil {
		return nil, err
	}

	// Document-global layers apply over the finished stack in declared
	// order, first entry first, with the same compositing rules and the
	// stack result as their base.
	if len(doc.GlobalLayers) > 0 {
		if err := r.applyLayers(doc, doc.GlobalLayers, r.result, fi, 0); err != nil {
			return nil, err
		}
	}

	r.fbos.Unbind()
	return r.result, nil
}

// ReadResult downloads the last rendered frame as RGBA8.
func (r *Renderer) ReadResult() ([]byte, error) {
	if r.result == nil {
		return nil, fmt.Errorf("render: no frame rendered")
	}
	return r.dev.ReadPixels(r.result.Texture)
}

// renderStack composites layers into out, starting from transparent
// black. Layers are declared top-to-bottom, so the application order is
// the reverse of the slice.
func (r *Renderer) renderStack(doc *compose.Document, layers []*compose.Layer, out *FBO, fi FrameInfo, depth int) error {
	r.fbos.Clear(out, compose.Transparent)
	ordered := make([]*compose.Layer, len(layers))
	for i, l := range layers {
		ordered[len(layers)-1-i] = l
	}
	return r.applyLayers(doc, ordered, out, fi, depth)
}

// applyLayers composites layers over the existing contents of acc in
// slice order, ping-ponging between acc and a scratch target. Scratch
// labels carry the group nesting depth so recursive precomposes get
// their own targets.
func (r *Renderer) applyLayers(doc *compose.Document, layers []*compose.Layer, acc *FBO, fi FrameInfo, depth int) error {
	w, h := acc.Texture.Width(), acc.Texture.Height()

	scratch, err := r.fbos.Create(fmt.Sprintf("renderer/accum/%d", depth), w, h)
	if err != nil {
		return err
	}
	defer r.fbos.Destroy(scratch)

	content, err := r.fbos.Create(fmt.Sprintf("renderer/layer/%d", depth), w, h)
	if err != nil {
		return err
	}
	defer r.fbos.Destroy(content)

	base, next := acc, scratch
	for _, l := range layers {
		if !l.Renders() {
			continue
		}

		var top gpu.Texture
		switch l.Kind {
		case compose.LayerImage:
			if err := r.drawImage(l, content, fi); err != nil {
				return err
			}
			top = content.Texture

		case compose.LayerSolid:
			r.fbos.Clear(content, l.Fill)
			top = content.Texture

		case compose.LayerGroup:
			if err := r.renderStack(doc, l.Children, content, fi, depth+1); err != nil {
				return err
			}
			top = content.Texture

		case compose.LayerAdjustment:
			top, err = r.runAdjustment(doc, l, base.Texture, w, h, fi)
			if err != nil {
				return err
			}
			if top == nil {
				// No plugin for the kind, or every pass was skipped.
				continue
			}
		}

		if err := r.compositeLayer(doc, l, base, top, next, fi); err != nil {
			if errors.Is(err, ErrFeedbackLoop) {
				compose.Logger().Warn("feedback loop detected; layer skipped",
					"layer", l.ID, "kind", l.Kind, "err", err)
				continue
			}
			return err
		}
		base, next = next, base
	}

	// An even number of composites leaves the result in acc already;
	// otherwise copy it back.
	if base != acc {
		if err := r.copyInto(base.Texture, acc, fi); err != nil {
			return err
		}
	}
	return nil
}

// drawImage renders an image layer's source into content through the
// placement shader, uploading (or reusing) its cached texture.
func (r *Renderer) drawImage(l *compose.Layer, content *FBO, fi FrameInfo) error {
	if l.Source == nil {
		r.fbos.Clear(content, compose.Transparent)
		return nil
	}
	tex, err := r.sourceTexture(l.Source)
	if err != nil {
		return err
	}

	placement := l.Placement
	if placement.IsZero() {
		sw, sh := float32(l.Source.Width), float32(l.Source.Height)
		if l.Orientation.Swapped() {
			sw, sh = sh, sw
		}
		placement = compose.Rect{W: sw, H: sh}
	}
	orientation := l.Orientation
	if orientation == 0 {
		orientation = compose.OrientNormal
	}

	r.fbos.Clear(content, compose.Transparent)
	inv := shader.PassInvocation{
		Shader:  shader.NameImage,
		Version: shader.BuiltinVersion,
		Uniforms: gpu.Uniforms{
			"orientation": gpu.Int(int32(orientation)),
			"placement":   gpu.Vec4(placement.X, placement.Y, placement.W, placement.H),
		},
	}
	channels := []gpu.ChannelBinding{{Name: "channel0", Texture: tex}}
	_, err = r.pipe.RunSingle(inv, channels, content, fi)
	return err
}

// runAdjustment samples the layer's parameters and executes its
// plugin's passes over base. Returns nil when the adjustment kind has
// no registered plugin.
func (r *Renderer) runAdjustment(doc *compose.Document, l *compose.Layer, base gpu.Texture, w, h int, fi FrameInfo) (gpu.Texture, error) {
	plugin := adjust.Lookup(l.Adjustment)
	if plugin == nil {
		compose.Logger().Warn("no plugin for adjustment kind; layer skipped",
			"layer", l.ID, "kind", l.Adjustment)
		return nil, nil
	}

	params := r.sampleParams(doc, l, plugin.Params(), fi)
	invs := plugin.MapParams(params)
	if len(invs) == 0 {
		return nil, nil
	}

	out, err := r.pipe.Run(invs, base, w, h, fi)
	if err != nil {
		return nil, err
	}
	if out == base {
		// Every pass was skipped.
		return nil, nil
	}
	return out, nil
}

// sampleParams resolves a layer's parameter values at the frame time:
// animated tracks win over static Params, which win over the declared
// defaults. While the host is dragging the selected layer, its
// interactive overrides win over everything.
func (r *Renderer) sampleParams(doc *compose.Document, l *compose.Layer, specs []compose.ParamSpec, fi FrameInfo) map[string]compose.Value {
	out := make(map[string]compose.Value, len(specs))
	for _, spec := range specs {
		switch {
		case l.Tracks[spec.Name] != nil:
			out[spec.Name] = r.sampler.Sample(l.ID, spec, l.Tracks[spec.Name], fi.Time)
		default:
			if v, ok := l.Params[spec.Name]; ok {
				out[spec.Name] = spec.ClampValue(v)
			} else {
				out[spec.Name] = spec.Default
			}
		}
		if doc.Interaction.Dragging && doc.Interaction.SelectedLayer == l.ID {
			if v, ok := doc.Interaction.Overrides[spec.Name]; ok {
				out[spec.Name] = spec.ClampValue(v)
			}
		}
	}
	return out
}

// layerOpacity resolves the layer's opacity at the frame time,
// honoring an opacity track when one exists.
func (r *Renderer) layerOpacity(l *compose.Layer, fi FrameInfo) float32 {
	if t := l.Tracks[opacitySpec.Name]; t != nil {
		return r.sampler.Sample(l.ID, opacitySpec, t, fi.Time).Float()
	}
	return opacitySpec.Domain.Clamp(l.Opacity)
}

// compositeLayer blends top over base into dst with the layer's blend
// mode, opacity, and mask.
func (r *Renderer) compositeLayer(doc *compose.Document, l *compose.Layer, base *FBO, top gpu.Texture, dst *FBO, fi FrameInfo) error {
	uniforms := gpu.Uniforms{
		"blendMode":   gpu.Int(int32(l.Blend)),
		"opacity":     gpu.Float(r.layerOpacity(l, fi)),
		"maskEnabled": gpu.Bool(false),
	}
	maskTex := r.whiteMask
	if l.Mask != nil && l.Mask.Source != nil {
		t, err := r.sourceTexture(l.Mask.Source)
		if err != nil {
			return err
		}
		maskTex = t
		mp := l.Mask.Params
		uniforms["maskEnabled"] = gpu.Bool(true)
		uniforms["maskInvert"] = gpu.Bool(mp.Invert)
		uniforms["maskFeather"] = gpu.Float(mp.Feather)
		uniforms["maskOpacity"] = gpu.Float(mp.Opacity)
		uniforms["maskCombine"] = gpu.Int(int32(mp.Combine))
	}

	inv := shader.PassInvocation{
		Shader:   shader.NameComposite,
		Version:  shader.BuiltinVersion,
		Uniforms: uniforms,
	}
	channels := []gpu.ChannelBinding{
		{Name: "channel0", Texture: base.Texture},
		{Name: "channel1", Texture: top},
		{Name: "maskTexture", Texture: maskTex},
	}
	_, err := r.pipe.RunSingle(inv, channels, dst, fi)
	return err
}

// copyInto copies src into dst through the copy shader.
func (r *Renderer) copyInto(src gpu.Texture, dst *FBO, fi FrameInfo) error {
	inv := shader.PassInvocation{
		Shader:  shader.NameCopy,
		Version: shader.BuiltinVersion,
	}
	channels := []gpu.ChannelBinding{{Name: "channel0", Texture: src}}
	_, err := r.pipe.RunSingle(inv, channels, dst, fi)
	return err
}

// sourceTexture returns the cached GPU texture for a source image,
// uploading on first use. Sources are keyed by content signature.
func (r *Renderer) sourceTexture(src *compose.ImageSource) (gpu.Texture, error) {
	if t, ok := r.textures.Get(src.Signature); ok {
		return t, nil
	}
	t, err := r.dev.CreateTexture("source/"+src.Signature, src.Width, src.Height)
	if err != nil {
		return nil, fmt.Errorf("render: upload source %q: %w", src.Signature, err)
	}
	if err := r.dev.Upload(t, src.Pixels); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("render: upload source %q: %w", src.Signature, err)
	}
	r.textures.Set(src.Signature, t)
	return t, nil
}

// InvalidateSource drops a cached source texture so the next frame
// re-uploads it.
func (r *Renderer) InvalidateSource(signature string) {
	r.textures.Delete(signature)
}

// Close releases every resource the renderer owns. The device itself
// stays open; the execution context closes it.
func (r *Renderer) Close() {
	r.textures.Clear()
	if r.whiteMask != nil {
		r.whiteMask.Destroy()
		r.whiteMask = nil
	}
	r.result = nil
	r.fbos.Close()
}

// frameSeed derives a stable per-frame seed in [0, 1).
func frameSeed(frame uint64) float32 {
	return float32(frame*2654435761%1000) / 1000
}
