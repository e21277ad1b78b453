// Package wgpu is the hardware device built on gogpu/wgpu. It brings
// up a real adapter, device and queue (or adopts a host-shared one),
// compiles every shader through naga so malformed WGSL fails the same
// way it would on hardware, and registers the resulting SPIR-V as a
// shader module on the device. Pixel execution currently runs through
// the software ops while wgpu texture readback matures.
package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/backend"
	"github.com/gogpu/compose/backend/soft"
	"github.com/gogpu/compose/gpu"
)

// DeviceName is the registry name of the wgpu device.
const DeviceName = backend.BackendWGPU

// ErrNoGPU is returned when no usable adapter is found.
var ErrNoGPU = errors.New("wgpu: no GPU adapter available")

func init() {
	backend.Register(DeviceName, func() (gpu.Device, error) {
		return New()
	})
}

// Device is the gogpu/wgpu implementation of gpu.Device.
type Device struct {
	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	// ownsDevice is false when the device came from a host-shared
	// provider; shared devices are never dropped on Close.
	ownsDevice bool

	maxTextureSize int

	// raster executes pixel operations until the wgpu draw/readback
	// path lands. Its textures back this device's textures one-to-one.
	raster *soft.Device

	closed bool
}

// New brings up an adapter, device and queue. Fails with ErrNoGPU when
// no adapter is available, which makes the backend registry fall back
// to the software device.
func New() (*Device, error) {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}

	if info, err := core.GetAdapterInfo(adapterID); err == nil {
		compose.Logger().Info("wgpu adapter selected",
			"name", info.Name, "type", info.DeviceType, "backend", info.Backend)
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:          "compose-device",
		RequiredLimits: gputypes.DefaultLimits(),
	})
	if err != nil {
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		_ = core.DeviceDrop(deviceID)
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("wgpu: get queue: %w", err)
	}

	d := &Device{
		instance:       instance,
		adapter:        adapterID,
		device:         deviceID,
		queue:          queueID,
		ownsDevice:     true,
		maxTextureSize: 16384,
		raster:         soft.New(),
	}
	if limits, err := core.GetDeviceLimits(deviceID); err == nil {
		d.maxTextureSize = int(limits.MaxTextureDimension2D)
	}
	return d, nil
}

// NewShared adopts a host-provided GPU context instead of creating
// one. Hosts embedding the compositor in a larger gogpu application
// pass their provider so both sides share one device; the handles must
// be the gogpu/wgpu core IDs. The shared device is not dropped on
// Close.
func NewShared(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("wgpu: nil device provider")
	}
	deviceID, ok := provider.Device().(core.DeviceID)
	if !ok || deviceID.IsZero() {
		return nil, fmt.Errorf("wgpu: provider device is %T, want a live core.DeviceID", provider.Device())
	}
	queueID, ok := provider.Queue().(core.QueueID)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider queue is %T, want core.QueueID", provider.Queue())
	}

	d := &Device{
		device:         deviceID,
		queue:          queueID,
		ownsDevice:     false,
		maxTextureSize: 16384,
		raster:         soft.New(),
	}
	if limits, err := core.GetDeviceLimits(deviceID); err == nil {
		d.maxTextureSize = int(limits.MaxTextureDimension2D)
	}
	if info := provider.AdapterInfo(); info.Name != "" {
		compose.Logger().Info("wgpu device shared from host",
			"adapter", info.Name, "type", info.Type)
	}
	return d, nil
}

// Name implements gpu.Device.
func (d *Device) Name() string { return DeviceName }

// Capabilities implements gpu.Device.
func (d *Device) Capabilities() gpu.Capabilities {
	return gpu.Capabilities{MaxTextureSize: d.maxTextureSize}
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(label string, w, h int) (gpu.Texture, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	if w > d.maxTextureSize || h > d.maxTextureSize {
		return nil, fmt.Errorf("wgpu: texture %q size %dx%d exceeds limit %d", label, w, h, d.maxTextureSize)
	}
	return d.raster.CreateTexture(label, w, h)
}

// Upload implements gpu.Device.
func (d *Device) Upload(t gpu.Texture, pix []byte) error {
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	return d.raster.Upload(t, pix)
}

// ReadPixels implements gpu.Device.
func (d *Device) ReadPixels(t gpu.Texture) ([]byte, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	return d.raster.ReadPixels(t)
}

// program pairs the dispatch program with the shader module its
// SPIR-V registered on the wgpu device. Module lifetimes follow the
// device; the hub releases them when the device drops.
type program struct {
	inner  gpu.Program
	module core.ShaderModuleID
}

func (p *program) Destroy() { p.inner.Destroy() }

// CompileProgram implements gpu.Device. Both stages go through naga,
// so a shader that does not validate fails compilation here exactly as
// it would at pipeline creation on hardware, and the fragment SPIR-V
// is registered as a shader module on the device.
func (d *Device) CompileProgram(label, vertexSrc, fragmentSrc string) (gpu.Program, error) {
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	if _, err := compileToSPIRV(vertexSrc); err != nil {
		return nil, fmt.Errorf("%w: %s vertex: %w", gpu.ErrCompile, label, err)
	}
	spirv, err := compileToSPIRV(fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s fragment: %w", gpu.ErrCompile, label, err)
	}
	module, err := core.DeviceCreateShaderModule(d.device, &gputypes.ShaderModuleDescriptor{
		Label:  label,
		Source: gputypes.ShaderSourceSPIRV{Code: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s module: %w", gpu.ErrCompile, label, err)
	}
	inner, err := d.raster.CompileProgram(label, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &program{inner: inner, module: module}, nil
}

// SetRenderTarget implements gpu.Device.
func (d *Device) SetRenderTarget(t gpu.Texture) {
	d.raster.SetRenderTarget(t)
}

// Clear implements gpu.Device.
func (d *Device) Clear(r, g, b, a float32) {
	d.raster.Clear(r, g, b, a)
}

// Draw implements gpu.Device.
func (d *Device) Draw(p gpu.Program, uniforms gpu.Uniforms, channels []gpu.ChannelBinding) error {
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	return d.raster.Draw(p.(*program).inner, uniforms, channels)
}

// Close implements gpu.Device. Resources are released in reverse
// order of creation; a host-shared device is left alone.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.raster.Close()

	if !d.ownsDevice {
		return
	}
	if !d.device.IsZero() {
		if err := core.DeviceDrop(d.device); err != nil {
			compose.Logger().Warn("wgpu device release failed", "err", err)
		}
		d.device = core.DeviceID{}
	}
	if !d.adapter.IsZero() {
		if err := core.AdapterDrop(d.adapter); err != nil {
			compose.Logger().Warn("wgpu adapter release failed", "err", err)
		}
		d.adapter = core.AdapterID{}
	}
	d.instance = nil
	d.queue = core.QueueID{}
}
