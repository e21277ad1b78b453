// Package blendmath implements the per-pixel blend equations used by
// the software device and documented by the blend compositing shader.
//
// Separable modes operate on each channel independently; the
// non-separable HSL modes (Hue, Saturation, Color, Luminosity) operate
// on the whole RGB triplet. Formulas follow the W3C Compositing and
// Blending Level 1 specification.
package blendmath

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compose"
)

// Composite blends top over base with the given mode and opacity.
// Colors are non-premultiplied RGBA in [0,1]; opacity is 0-100 and
// scales the top layer's alpha before compositing.
//
// The result follows the W3C general formula
//
//	Co = (1-ab)*Cs + ab*B(Cb, Cs)
//
// mixed by source-over alpha compositing.
func Composite(base, top compose.ColorF32, mode compose.BlendMode, opacity float32) compose.ColorF32 {
	sa := top.A * clampOpacity(opacity) / 100
	da := base.A

	if sa <= 0 {
		return base
	}

	// Blend the unmultiplied source color against the backdrop.
	br, bg, bb := blendRGB(base, top, mode)

	// Where the backdrop is transparent the blend result falls back to
	// the plain source color.
	cr := (1-da)*top.R + da*br
	cg := (1-da)*top.G + da*bg
	cb := (1-da)*top.B + da*bb

	// Source-over alpha compositing of the blended source.
	outA := sa + da*(1-sa)
	if outA <= 0 {
		return compose.ColorF32{}
	}
	return compose.ColorF32{
		R: (cr*sa + base.R*da*(1-sa)) / outA,
		G: (cg*sa + base.G*da*(1-sa)) / outA,
		B: (cb*sa + base.B*da*(1-sa)) / outA,
		A: outA,
	}
}

// blendRGB applies the mode's blend function B(Cb, Cs) to the
// unmultiplied RGB channels.
func blendRGB(base, top compose.ColorF32, mode compose.BlendMode) (r, g, b float32) {
	switch mode {
	case compose.BlendNormal:
		return top.R, top.G, top.B
	case compose.BlendMultiply:
		return base.R * top.R, base.G * top.G, base.B * top.B
	case compose.BlendScreen:
		return screen(base.R, top.R), screen(base.G, top.G), screen(base.B, top.B)
	case compose.BlendOverlay:
		// Overlay is HardLight with swapped operands.
		return hardLight(top.R, base.R), hardLight(top.G, base.G), hardLight(top.B, base.B)
	case compose.BlendDarken:
		return math32.Min(base.R, top.R), math32.Min(base.G, top.G), math32.Min(base.B, top.B)
	case compose.BlendLighten:
		return math32.Max(base.R, top.R), math32.Max(base.G, top.G), math32.Max(base.B, top.B)
	case compose.BlendColorDodge:
		return dodge(base.R, top.R), dodge(base.G, top.G), dodge(base.B, top.B)
	case compose.BlendColorBurn:
		return burn(base.R, top.R), burn(base.G, top.G), burn(base.B, top.B)
	case compose.BlendHardLight:
		return hardLight(base.R, top.R), hardLight(base.G, top.G), hardLight(base.B, top.B)
	case compose.BlendSoftLight:
		return softLight(base.R, top.R), softLight(base.G, top.G), softLight(base.B, top.B)
	case compose.BlendDifference:
		return math32.Abs(base.R - top.R), math32.Abs(base.G - top.G), math32.Abs(base.B - top.B)
	case compose.BlendExclusion:
		return exclusion(base.R, top.R), exclusion(base.G, top.G), exclusion(base.B, top.B)
	case compose.BlendHue:
		sr, sg, sb := setSat(top.R, top.G, top.B, sat(base.R, base.G, base.B))
		return setLum(sr, sg, sb, lum(base.R, base.G, base.B))
	case compose.BlendSaturation:
		sr, sg, sb := setSat(base.R, base.G, base.B, sat(top.R, top.G, top.B))
		return setLum(sr, sg, sb, lum(base.R, base.G, base.B))
	case compose.BlendColor:
		return setLum(top.R, top.G, top.B, lum(base.R, base.G, base.B))
	case compose.BlendLuminosity:
		return setLum(base.R, base.G, base.B, lum(top.R, top.G, top.B))
	default:
		return top.R, top.G, top.B
	}
}

func screen(b, s float32) float32 {
	return b + s - b*s
}

func hardLight(b, s float32) float32 {
	if s <= 0.5 {
		return b * 2 * s
	}
	return screen(b, 2*s-1)
}

func dodge(b, s float32) float32 {
	if b <= 0 {
		return 0
	}
	if s >= 1 {
		return 1
	}
	return math32.Min(1, b/(1-s))
}

func burn(b, s float32) float32 {
	if b >= 1 {
		return 1
	}
	if s <= 0 {
		return 0
	}
	return 1 - math32.Min(1, (1-b)/s)
}

func softLight(b, s float32) float32 {
	if s <= 0.5 {
		return b - (1-2*s)*b*(1-b)
	}
	var d float32
	if b <= 0.25 {
		d = ((16*b-12)*b + 4) * b
	} else {
		d = math32.Sqrt(b)
	}
	return b + (2*s-1)*(d-b)
}

func exclusion(b, s float32) float32 {
	return b + s - 2*b*s
}

// lum returns the luminance of a color using BT.601 coefficients.
func lum(r, g, b float32) float32 {
	return 0.30*r + 0.59*g + 0.11*b
}

// sat returns the saturation (max - min) of a color.
func sat(r, g, b float32) float32 {
	return max3(r, g, b) - min3(r, g, b)
}

// clipColor clips components to [0,1] while preserving luminance.
func clipColor(r, g, b float32) (float32, float32, float32) {
	l := lum(r, g, b)
	n := min3(r, g, b)
	x := max3(r, g, b)

	if n < 0 {
		r = l + (r-l)*l/(l-n)
		g = l + (g-l)*l/(l-n)
		b = l + (b-l)*l/(l-n)
	}
	if x > 1 {
		r = l + (r-l)*(1-l)/(x-l)
		g = l + (g-l)*(1-l)/(x-l)
		b = l + (b-l)*(1-l)/(x-l)
	}
	return r, g, b
}

// setLum shifts the color to the target luminance, then clips.
func setLum(r, g, b, l float32) (float32, float32, float32) {
	d := l - lum(r, g, b)
	return clipColor(r+d, g+d, b+d)
}

// setSat rescales the color's components to the target saturation while
// preserving their ordering.
func setSat(r, g, b, s float32) (float32, float32, float32) {
	minP, midP, maxP := sortRGB(&r, &g, &b)
	if *maxP > *minP {
		*midP = (*midP - *minP) * s / (*maxP - *minP)
		*maxP = s
	} else {
		*midP = 0
		*maxP = 0
	}
	*minP = 0
	return r, g, b
}

// sortRGB returns pointers to r, g, b ordered by value.
func sortRGB(r, g, b *float32) (minP, midP, maxP *float32) {
	switch {
	case *r <= *g && *g <= *b:
		return r, g, b
	case *r <= *b && *b <= *g:
		return r, b, g
	case *b <= *r && *r <= *g:
		return b, r, g
	case *g <= *r && *r <= *b:
		return g, r, b
	case *g <= *b && *b <= *r:
		return g, b, r
	default:
		return b, g, r
	}
}

func min3(a, b, c float32) float32 {
	return math32.Min(a, math32.Min(b, c))
}

func max3(a, b, c float32) float32 {
	return math32.Max(a, math32.Max(b, c))
}

func clampOpacity(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
