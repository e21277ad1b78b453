// Package render executes the compositor: it owns off-screen render
// targets, runs shader passes as single draws or dependency graphs, and
// composites layer stacks into a document-sized output via ping-pong
// buffers.
package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
)

// FBO errors.
var (
	// ErrUnknownFBO is returned when operating on an ID that was never
	// created or was destroyed.
	ErrUnknownFBO = errors.New("render: unknown framebuffer")

	// ErrFeedbackLoop is returned when a draw would read the texture it
	// is rendering into.
	ErrFeedbackLoop = errors.New("render: texture is bound as render target")
)

// FBO is one off-screen render target: a texture plus its identity in
// the manager.
type FBO struct {
	// ID is the manager-assigned identifier.
	ID uint64

	// Label names the FBO in logs.
	Label string

	// Texture is the color attachment.
	Texture gpu.Texture
}

// FBOManager allocates and tracks off-screen render targets for one
// device, and knows which texture is currently bound as the render
// target so draws can refuse feedback loops. Not safe for concurrent
// use; it lives on the execution context with its device.
type FBOManager struct {
	dev    gpu.Device
	nextID uint64

	fbos   map[uint64]*FBO
	byName map[string]*FBO
	owner  map[gpu.Texture]uint64

	// bound is the texture currently receiving draws, nil when no
	// target is bound.
	bound gpu.Texture
}

// NewFBOManager creates a manager for the device.
func NewFBOManager(dev gpu.Device) *FBOManager {
	return &FBOManager{
		dev:    dev,
		fbos:   make(map[uint64]*FBO),
		byName: make(map[string]*FBO),
		owner:  make(map[gpu.Texture]uint64),
	}
}

// Create returns the w x h render target named label, allocating it on
// first use. A label names at most one live FBO: repeating it at the
// same size returns the existing target, a different size reallocates
// its texture in place.
func (m *FBOManager) Create(label string, w, h int) (*FBO, error) {
	if f, ok := m.byName[label]; ok {
		if err := m.Resize(f, w, h); err != nil {
			return nil, err
		}
		return f, nil
	}
	t, err := m.dev.CreateTexture(label, w, h)
	if err != nil {
		return nil, fmt.Errorf("render: create framebuffer %q: %w", label, err)
	}
	m.nextID++
	f := &FBO{ID: m.nextID, Label: label, Texture: t}
	m.fbos[f.ID] = f
	m.byName[label] = f
	m.owner[t] = f.ID
	return f, nil
}

// Get returns the FBO by ID.
func (m *FBOManager) Get(id uint64) (*FBO, error) {
	f, ok := m.fbos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFBO, id)
	}
	return f, nil
}

// Lookup returns the live FBO named label, if any.
func (m *FBOManager) Lookup(label string) (*FBO, bool) {
	f, ok := m.byName[label]
	return f, ok
}

// Bind makes the FBO's texture the render target for subsequent draws.
func (m *FBOManager) Bind(f *FBO) {
	m.dev.SetRenderTarget(f.Texture)
	m.bound = f.Texture
}

// Unbind releases the current render target.
func (m *FBOManager) Unbind() {
	m.dev.SetRenderTarget(nil)
	m.bound = nil
}

// Bound returns the texture currently bound as the render target, or
// nil.
func (m *FBOManager) Bound() gpu.Texture {
	return m.bound
}

// IsBound reports whether t is the current render target. The pipeline
// checks every input texture against this before a draw; a texture
// that is simultaneously source and target is a feedback loop.
func (m *FBOManager) IsBound(t gpu.Texture) bool {
	return t != nil && t == m.bound
}

// Clear fills the FBO with a constant color.
func (m *FBOManager) Clear(f *FBO, c compose.ColorF32) {
	prev := m.bound
	m.Bind(f)
	m.dev.Clear(c.R, c.G, c.B, c.A)
	if prev != f.Texture {
		m.dev.SetRenderTarget(prev)
	}
	m.bound = prev
}

// Resize reallocates the FBO's texture at the new size. Contents are
// undefined afterward. A bound FBO stays bound to the new texture.
func (m *FBOManager) Resize(f *FBO, w, h int) error {
	if f.Texture.Width() == w && f.Texture.Height() == h {
		return nil
	}
	t, err := m.dev.CreateTexture(f.Label, w, h)
	if err != nil {
		return fmt.Errorf("render: resize framebuffer %q: %w", f.Label, err)
	}
	wasBound := m.bound == f.Texture
	delete(m.owner, f.Texture)
	f.Texture.Destroy()
	f.Texture = t
	m.owner[t] = f.ID
	if wasBound {
		m.Bind(f)
	}
	return nil
}

// Destroy releases the FBO and its texture. Destroying the bound FBO
// unbinds it first.
func (m *FBOManager) Destroy(f *FBO) {
	if m.bound == f.Texture {
		m.Unbind()
	}
	delete(m.owner, f.Texture)
	delete(m.fbos, f.ID)
	if m.byName[f.Label] == f {
		delete(m.byName, f.Label)
	}
	f.Texture.Destroy()
}

// Owner returns the ID of the FBO owning the texture, or 0 when the
// texture is not a managed render target.
func (m *FBOManager) Owner(t gpu.Texture) uint64 {
	return m.owner[t]
}

// Len returns the number of live FBOs.
func (m *FBOManager) Len() int {
	return len(m.fbos)
}

// Close destroys every remaining FBO.
func (m *FBOManager) Close() {
	m.Unbind()
	for _, f := range m.fbos {
		f.Texture.Destroy()
	}
	m.fbos = make(map[uint64]*FBO)
	m.byName = make(map[string]*FBO)
	m.owner = make(map[gpu.Texture]uint64)
}
