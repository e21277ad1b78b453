package compose

import (
	"errors"
	"fmt"
)

// ErrInvalidHexColor is returned when a hex color string cannot be parsed.
var ErrInvalidHexColor = errors.New("compose: invalid hex color")

// ColorF32 is an RGBA color with float32 components in [0, 1].
// Components are non-premultiplied; alpha is always linear (never
// gamma-encoded), while R, G, B may be in sRGB or linear space
// depending on context.
type ColorF32 struct {
	R, G, B, A float32
}

// Transparent is fully transparent black.
var Transparent = ColorF32{}

// RGBA returns a color from the four components, clamped to [0, 1].
func RGBA(r, g, b, a float32) ColorF32 {
	return ColorF32{
		R: clamp01(r),
		G: clamp01(g),
		B: clamp01(b),
		A: clamp01(a),
	}
}

// Clamped returns the color with every component clamped to [0, 1].
func (c ColorF32) Clamped() ColorF32 {
	return RGBA(c.R, c.G, c.B, c.A)
}

// String returns the color as an #rrggbbaa hex string.
func (c ColorF32) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x",
		f32ToU8(c.R), f32ToU8(c.G), f32ToU8(c.B), f32ToU8(c.A))
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (leading '#'
// optional) into a ColorF32. The alpha defaults to 1 when absent.
func ParseHexColor(s string) (ColorF32, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}

	switch len(s) {
	case 3:
		r, okR := hexNibble(s[0])
		g, okG := hexNibble(s[1])
		b, okB := hexNibble(s[2])
		if !okR || !okG || !okB {
			return ColorF32{}, fmt.Errorf("%w: %q", ErrInvalidHexColor, s)
		}
		// Expand each nibble to a full byte (0xf -> 0xff).
		return ColorF32{
			R: float32(r*17) / 255,
			G: float32(g*17) / 255,
			B: float32(b*17) / 255,
			A: 1,
		}, nil
	case 6, 8:
		var comp [4]uint8
		comp[3] = 0xff
		for i := 0; i < len(s)/2; i++ {
			hi, okHi := hexNibble(s[i*2])
			lo, okLo := hexNibble(s[i*2+1])
			if !okHi || !okLo {
				return ColorF32{}, fmt.Errorf("%w: %q", ErrInvalidHexColor, s)
			}
			comp[i] = hi<<4 | lo
		}
		return ColorF32{
			R: float32(comp[0]) / 255,
			G: float32(comp[1]) / 255,
			B: float32(comp[2]) / 255,
			A: float32(comp[3]) / 255,
		}, nil
	default:
		return ColorF32{}, fmt.Errorf("%w: %q", ErrInvalidHexColor, s)
	}
}

// hexNibble decodes a single hex digit.
func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// f32ToU8 converts a [0,1] component to uint8 with rounding.
func f32ToU8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// clamp01 clamps a float32 to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
