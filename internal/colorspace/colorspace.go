// Package colorspace converts colors between the sRGB presentation
// space and linear space. Keyframed colors are interpolated in linear
// space and converted back for upload; the software device uses the
// same functions so both paths agree.
package colorspace

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compose"
)

// SRGBToLinear converts one sRGB component to linear (the EOTF).
// Input and output are in [0,1].
func SRGBToLinear(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math32.Pow((s+0.055)/1.055, 2.4)
}

// LinearToSRGB converts one linear component to sRGB (the OETF).
// Input and output are in [0,1].
func LinearToSRGB(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math32.Pow(l, 1.0/2.4) - 0.055
}

// ToLinear converts a full color from sRGB to linear space.
// Only RGB components are converted; alpha is always linear.
func ToLinear(c compose.ColorF32) compose.ColorF32 {
	return compose.ColorF32{
		R: SRGBToLinear(c.R),
		G: SRGBToLinear(c.G),
		B: SRGBToLinear(c.B),
		A: c.A,
	}
}

// ToSRGB converts a full color from linear to sRGB space.
// Only RGB components are converted; alpha is always linear.
func ToSRGB(c compose.ColorF32) compose.ColorF32 {
	return compose.ColorF32{
		R: LinearToSRGB(c.R),
		G: LinearToSRGB(c.G),
		B: LinearToSRGB(c.B),
		A: c.A,
	}
}

// LerpLinear interpolates two sRGB colors through linear space and
// returns the result in sRGB. At t=0 and t=1 the inputs round-trip
// within floating-point tolerance.
func LerpLinear(a, b compose.ColorF32, t float32) compose.ColorF32 {
	la := ToLinear(a)
	lb := ToLinear(b)
	return ToSRGB(compose.ColorF32{
		R: la.R + (lb.R-la.R)*t,
		G: la.G + (lb.G-la.G)*t,
		B: la.B + (lb.B-la.B)*t,
		A: la.A + (lb.A-la.A)*t,
	})
}
