// Package backend selects and constructs GPU device implementations.
// Device packages register factories from init(); callers pick one by
// name or take the best available by priority. The software device is
// always registered and is the fallback of last resort.
package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/compose/gpu"
)

// Backend names.
const (
	// BackendWGPU is the hardware device built on gogpu/wgpu.
	BackendWGPU = "wgpu"

	// BackendSoft is the deterministic software device.
	BackendSoft = "soft"
)

// ErrNoBackend is returned when no device backend can be constructed.
var ErrNoBackend = errors.New("backend: no device available")

// Factory constructs a device, or returns an error when the backend
// cannot run in this environment (no GPU, no driver).
type Factory func() (gpu.Device, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// Selection order. Hardware first, software as fallback.
	priority = []string{BackendWGPU, BackendSoft}
)

// Register adds a device factory under the given name. Called from
// init() in device packages; a repeated name replaces the earlier
// factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a factory. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// New constructs the named device.
func New(name string) (gpu.Device, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrNoBackend
	}
	return f()
}

// Default constructs the best available device: each backend in
// priority order until one succeeds, then any remaining registered
// backend. Reports false as the second result when the chosen device
// is not the first-priority backend, so callers can surface that a
// fallback is in use.
func Default() (gpu.Device, bool, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var firstErr error
	for i, name := range priority {
		f, ok := factories[name]
		if !ok {
			continue
		}
		d, err := f()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return d, i == 0, nil
	}

	for name, f := range factories {
		if inPriority(name) {
			continue
		}
		if d, err := f(); err == nil {
			return d, false, nil
		}
	}

	if firstErr != nil {
		return nil, false, firstErr
	}
	return nil, false, ErrNoBackend
}

func inPriority(name string) bool {
	for _, p := range priority {
		if p == name {
			return true
		}
	}
	return false
}
