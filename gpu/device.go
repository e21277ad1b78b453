// Package gpu defines the device contract the compositor renders
// against: 2D RGBA textures, compiled fullscreen-pass programs, and an
// immediate-mode draw call. Implementations live under backend/ (a
// deterministic software device and a gogpu/wgpu device); keeping the
// interfaces in their own package avoids import cycles between the
// shader registry and the render pipeline.
package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Device errors shared by all implementations.
var (
	// ErrDeviceClosed is returned when operating on a closed device.
	ErrDeviceClosed = errors.New("gpu: device is closed")

	// ErrCompile is returned when program compilation or linking fails.
	ErrCompile = errors.New("gpu: program compile failed")

	// ErrNoTarget is returned when drawing without a bound render target.
	ErrNoTarget = errors.New("gpu: no render target bound")

	// ErrBadUpload is returned when uploaded pixel data does not match
	// the texture dimensions.
	ErrBadUpload = errors.New("gpu: pixel data size mismatch")
)

// Texture is a 2D RGBA8 GPU texture owned by the device that created
// it. Handles are never shared across devices.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Destroy releases the texture's GPU resources.
	Destroy()
}

// Program is a compiled and linked vertex+fragment program.
type Program interface {
	// Destroy releases the program's GPU resources.
	Destroy()
}

// ChannelBinding binds a texture to a named shader channel. The
// pipeline binds channels to sequential texture units in slice order.
type ChannelBinding struct {
	// Name is the sampler name in the shader (e.g. "channel0",
	// "previousPass", "maskTexture").
	Name string

	// Texture is the bound texture.
	Texture Texture
}

// Capabilities reports device limits used by the resource validator.
type Capabilities struct {
	// MaxTextureSize is the maximum width/height of a 2D texture.
	MaxTextureSize int

	// MemoryBytes is the detected or estimated GPU memory. Zero means
	// unknown; the validator falls back to a conservative estimate.
	MemoryBytes int64
}

// Device is the immediate-mode GPU contract the compositor targets:
// programmable vertex/fragment stages, off-screen render targets, and
// 2D textures. A device and everything it creates are owned by a
// single execution context; none of the methods are safe for use from
// other goroutines.
type Device interface {
	// Name returns the device identifier (e.g. "soft", "wgpu").
	Name() string

	// Capabilities returns the device limits.
	Capabilities() Capabilities

	// CreateTexture allocates a w x h RGBA8 texture with undefined
	// contents.
	CreateTexture(label string, w, h int) (Texture, error)

	// Upload replaces the texture's pixels with non-premultiplied
	// RGBA8 data of exactly w*h*4 bytes.
	Upload(t Texture, pix []byte) error

	// ReadPixels downloads the texture's pixels as non-premultiplied
	// RGBA8. Used for presentation readback and tests.
	ReadPixels(t Texture) ([]byte, error)

	// CompileProgram compiles and links a vertex+fragment source pair.
	// Returns an error wrapping ErrCompile when either stage fails.
	CompileProgram(label, vertexSrc, fragmentSrc string) (Program, error)

	// SetRenderTarget directs subsequent Clear/Draw calls at the
	// texture. Pass nil to unbind.
	SetRenderTarget(t Texture)

	// Clear fills the bound render target with a constant color.
	Clear(r, g, b, a float32)

	// Draw runs the program over a fullscreen quad into the bound
	// render target, with the given uniforms and texture channels.
	Draw(p Program, uniforms Uniforms, channels []ChannelBinding) error

	// Close releases every resource the device still owns.
	Close()
}

// PreferredFormat is the texture format every device allocates;
// matches the RGBA8 layout the document model uses for pixel buffers.
const PreferredFormat = gputypes.TextureFormatRGBA8Unorm
