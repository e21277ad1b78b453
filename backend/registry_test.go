package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/compose/gpu"
)

type stubDevice struct{ gpu.Device }

func (stubDevice) Name() string { return "stub" }
func (stubDevice) Close()       {}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("no-such-backend"); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("err = %v, want ErrNoBackend", err)
	}
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub", func() (gpu.Device, error) { return stubDevice{}, nil })
	t.Cleanup(func() { Unregister("stub") })

	d, err := New("stub")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Name() != "stub" {
		t.Errorf("Name = %q", d.Name())
	}
}

func TestDefaultFallsBackPastFailingBackends(t *testing.T) {
	// A failing first-priority backend must not prevent selection, and
	// the chosen device must be reported as a fallback.
	Register(BackendWGPU, func() (gpu.Device, error) { return nil, errors.New("no adapter") })
	Register(BackendSoft, func() (gpu.Device, error) { return stubDevice{}, nil })
	t.Cleanup(func() {
		Unregister(BackendWGPU)
		Unregister(BackendSoft)
	})

	d, hardware, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if hardware {
		t.Error("fallback device reported as first-priority hardware")
	}
	if d == nil {
		t.Fatal("Default returned nil device")
	}
}

func TestAvailableListsRegistered(t *testing.T) {
	Register("listed", func() (gpu.Device, error) { return stubDevice{}, nil })
	t.Cleanup(func() { Unregister("listed") })

	found := false
	for _, name := range Available() {
		if name == "listed" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing %q", Available(), "listed")
	}
}
