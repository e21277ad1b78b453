package colorspace

import (
	"math"
	"testing"

	"github.com/gogpu/compose"
)

func TestTransferRoundTrip(t *testing.T) {
	const tol = 1e-5
	for i := 0; i <= 100; i++ {
		s := float32(i) / 100
		got := LinearToSRGB(SRGBToLinear(s))
		if math.Abs(float64(got-s)) > tol {
			t.Errorf("round trip of %v = %v", s, got)
		}
	}
}

func TestTransferEndpoints(t *testing.T) {
	if got := SRGBToLinear(0); got != 0 {
		t.Errorf("SRGBToLinear(0) = %v", got)
	}
	if got := SRGBToLinear(1); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("SRGBToLinear(1) = %v", got)
	}
	// Mid gray is darker in linear space.
	if got := SRGBToLinear(0.5); got > 0.25 {
		t.Errorf("SRGBToLinear(0.5) = %v, want < 0.25", got)
	}
}

func TestAlphaStaysLinear(t *testing.T) {
	c := compose.ColorF32{R: 0.5, G: 0.5, B: 0.5, A: 0.5}
	if got := ToLinear(c); got.A != 0.5 {
		t.Errorf("ToLinear alpha = %v, want 0.5", got.A)
	}
	if got := ToSRGB(c); got.A != 0.5 {
		t.Errorf("ToSRGB alpha = %v, want 0.5", got.A)
	}
}

func TestLerpLinearEndpoints(t *testing.T) {
	a := compose.ColorF32{R: 0.8, G: 0.2, B: 0.4, A: 1}
	b := compose.ColorF32{R: 0.1, G: 0.9, B: 0.3, A: 0.5}
	const tol = 1e-4

	at0 := LerpLinear(a, b, 0)
	at1 := LerpLinear(a, b, 1)
	if math.Abs(float64(at0.R-a.R)) > tol || math.Abs(float64(at0.G-a.G)) > tol {
		t.Errorf("LerpLinear at 0 = %v, want %v", at0, a)
	}
	if math.Abs(float64(at1.R-b.R)) > tol || math.Abs(float64(at1.G-b.G)) > tol {
		t.Errorf("LerpLinear at 1 = %v, want %v", at1, b)
	}
}

func TestLerpLinearBrighterThanSRGBLerp(t *testing.T) {
	// Interpolating through linear space keeps perceived brightness:
	// the midpoint between black and white is lighter than the naive
	// sRGB average of 0.5.
	mid := LerpLinear(compose.ColorF32{A: 1}, compose.ColorF32{R: 1, G: 1, B: 1, A: 1}, 0.5)
	if mid.R <= 0.5 {
		t.Errorf("linear-space midpoint = %v, want > 0.5", mid.R)
	}
}
