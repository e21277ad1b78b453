// Package soft is the deterministic software device: textures are CPU
// byte buffers and every built-in shader has a pixel-exact CPU
// implementation. Programs are selected by the "//!op:" pragma on the
// first line of a fragment source, so the same shader descriptors
// drive both this device and the hardware one. Used as the rendering
// fallback and as the reference device in tests.
package soft

import (
	"fmt"
	"strings"

	"github.com/gogpu/compose/backend"
	"github.com/gogpu/compose/gpu"
)

// DeviceName is the registry name of the software device.
const DeviceName = backend.BackendSoft

// maxTextureSize mirrors the common desktop GL limit so dimension
// validation behaves the same across devices.
const maxTextureSize = 16384

const opPragma = "//!op:"

func init() {
	backend.Register(DeviceName, func() (gpu.Device, error) {
		return New(), nil
	})
}

// texture is a CPU-resident RGBA8 buffer, non-premultiplied.
type texture struct {
	label     string
	w, h      int
	pix       []byte
	destroyed bool
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }
func (t *texture) Destroy()    { t.destroyed = true; t.pix = nil }

// program is a dispatch token: the op name parsed from the fragment
// pragma.
type program struct {
	label string
	op    string
}

func (p *program) Destroy() {}

// opFunc executes one op over every target pixel.
type opFunc func(d *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error

// Device is the software implementation of gpu.Device.
type Device struct {
	target *texture
	closed bool
}

// New creates a software device.
func New() *Device {
	return &Device{}
}

// Name implements gpu.Device.
func (d *Device) Name() string { return DeviceName }

// Capabilities implements gpu.Device. Memory is reported as zero so
// validation falls back to its conservative budget.
func (d *Device) Capabilities() gpu.Capabilities {
	return gpu.Capabilities{MaxTextureSize: maxTextureSize}
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(label string, w, h int) (gpu.Texture, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	if w <= 0 || h <= 0 || w > maxTextureSize || h > maxTextureSize {
		return nil, fmt.Errorf("soft: texture %q size %dx%d out of range", label, w, h)
	}
	return &texture{label: label, w: w, h: h, pix: make([]byte, w*h*4)}, nil
}

// Upload implements gpu.Device.
func (d *Device) Upload(t gpu.Texture, pix []byte) error {
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	st := t.(*texture)
	if len(pix) != st.w*st.h*4 {
		return fmt.Errorf("%w: got %d bytes, want %d", gpu.ErrBadUpload, len(pix), st.w*st.h*4)
	}
	copy(st.pix, pix)
	return nil
}

// ReadPixels implements gpu.Device.
func (d *Device) ReadPixels(t gpu.Texture) ([]byte, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	st := t.(*texture)
	out := make([]byte, len(st.pix))
	copy(out, st.pix)
	return out, nil
}

// CompileProgram implements gpu.Device. The fragment source must carry
// an op pragma naming a built-in CPU implementation; anything else is
// a compile failure, mirroring how an unparsable shader fails on
// hardware.
func (d *Device) CompileProgram(label, _, fragmentSrc string) (gpu.Program, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	op := parseOp(fragmentSrc)
	if op == "" {
		return nil, fmt.Errorf("%w: %s: no op pragma in fragment source", gpu.ErrCompile, label)
	}
	if _, ok := ops[op]; !ok {
		return nil, fmt.Errorf("%w: %s: unknown op %q", gpu.ErrCompile, label, op)
	}
	return &program{label: label, op: op}, nil
}

// parseOp finds the op pragma. Injected defines may precede it, so the
// whole source is scanned, not just the first line.
func parseOp(src string) string {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, opPragma); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// SetRenderTarget implements gpu.Device.
func (d *Device) SetRenderTarget(t gpu.Texture) {
	if t == nil {
		d.target = nil
		return
	}
	d.target = t.(*texture)
}

// Clear implements gpu.Device.
func (d *Device) Clear(r, g, b, a float32) {
	if d.target == nil {
		return
	}
	px := [4]byte{u8(r), u8(g), u8(b), u8(a)}
	pix := d.target.pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
}

// Draw implements gpu.Device.
func (d *Device) Draw(p gpu.Program, uniforms gpu.Uniforms, channels []gpu.ChannelBinding) error {
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	if d.target == nil {
		return gpu.ErrNoTarget
	}
	sp := p.(*program)
	fn := ops[sp.op]
	if fn == nil {
		return fmt.Errorf("%w: op %q", gpu.ErrCompile, sp.op)
	}
	byName := make(map[string]*texture, len(channels))
	for _, c := range channels {
		if c.Texture != nil {
			byName[c.Name] = c.Texture.(*texture)
		}
	}
	return fn(d, d.target, uniforms, byName)
}

// Close implements gpu.Device.
func (d *Device) Close() {
	d.target = nil
	d.closed = true
}
