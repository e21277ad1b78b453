package soft

import (
	"errors"
	"testing"

	"github.com/gogpu/compose/gpu"
)

func TestCompileRequiresOpPragma(t *testing.T) {
	d := New()
	defer d.Close()

	if _, err := d.CompileProgram("bad", "", "no pragma"); !errors.Is(err, gpu.ErrCompile) {
		t.Fatalf("err = %v, want ErrCompile", err)
	}
	if _, err := d.CompileProgram("unknown", "", "//!op: warp-drive"); !errors.Is(err, gpu.ErrCompile) {
		t.Fatalf("unknown op err = %v, want ErrCompile", err)
	}
	if _, err := d.CompileProgram("good", "", "//!op: copy"); err != nil {
		t.Fatalf("valid op rejected: %v", err)
	}
	// Injected defines may push the pragma off the first line.
	if _, err := d.CompileProgram("defined", "", "const A = 1;\n//!op: copy\nbody"); err != nil {
		t.Fatalf("pragma after defines rejected: %v", err)
	}
}

func TestUploadSizeChecked(t *testing.T) {
	d := New()
	defer d.Close()

	tex, err := d.CreateTexture("t", 2, 2)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := d.Upload(tex, make([]byte, 3)); !errors.Is(err, gpu.ErrBadUpload) {
		t.Fatalf("short upload err = %v, want ErrBadUpload", err)
	}
	if err := d.Upload(tex, make([]byte, 2*2*4)); err != nil {
		t.Fatalf("exact upload rejected: %v", err)
	}
}

func TestDrawWithoutTarget(t *testing.T) {
	d := New()
	defer d.Close()

	p, err := d.CompileProgram("copy", "", "//!op: copy")
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if err := d.Draw(p, nil, nil); !errors.Is(err, gpu.ErrNoTarget) {
		t.Fatalf("err = %v, want ErrNoTarget", err)
	}
}

func TestClosedDeviceRejectsWork(t *testing.T) {
	d := New()
	tex, _ := d.CreateTexture("t", 2, 2)
	d.Close()

	if _, err := d.CreateTexture("u", 2, 2); !errors.Is(err, gpu.ErrDeviceClosed) {
		t.Errorf("CreateTexture err = %v", err)
	}
	if err := d.Upload(tex, make([]byte, 16)); !errors.Is(err, gpu.ErrDeviceClosed) {
		t.Errorf("Upload err = %v", err)
	}
	if _, err := d.ReadPixels(tex); !errors.Is(err, gpu.ErrDeviceClosed) {
		t.Errorf("ReadPixels err = %v", err)
	}
}

func TestClearAndReadback(t *testing.T) {
	d := New()
	defer d.Close()

	tex, _ := d.CreateTexture("t", 2, 2)
	d.SetRenderTarget(tex)
	d.Clear(1, 0, 0.5, 1)
	pix, err := d.ReadPixels(tex)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if pix[0] != 255 || pix[1] != 0 || pix[2] != 128 || pix[3] != 255 {
		t.Errorf("pixel 0 = %v", pix[:4])
	}
}

func TestCapabilitiesReportLimit(t *testing.T) {
	d := New()
	defer d.Close()
	if got := d.Capabilities().MaxTextureSize; got != 16384 {
		t.Errorf("MaxTextureSize = %d, want 16384", got)
	}
}
