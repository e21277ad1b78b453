package compose

// BlendMode specifies how a layer combines with the accumulated result
// beneath it. The numeric value doubles as the blend-mode id uploaded
// to the compositing shader, so the order here is part of the shader
// contract.
type BlendMode uint8

// Blend mode constants.
const (
	// BlendNormal is standard source-over alpha compositing.
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	// HSL blend modes operate on hue/saturation/luminosity components.
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity

	blendModeCount
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDarken:
		return "Darken"
	case BlendLighten:
		return "Lighten"
	case BlendColorDodge:
		return "ColorDodge"
	case BlendColorBurn:
		return "ColorBurn"
	case BlendHardLight:
		return "HardLight"
	case BlendSoftLight:
		return "SoftLight"
	case BlendDifference:
		return "Difference"
	case BlendExclusion:
		return "Exclusion"
	case BlendHue:
		return "Hue"
	case BlendSaturation:
		return "Saturation"
	case BlendColor:
		return "Color"
	case BlendLuminosity:
		return "Luminosity"
	default:
		return "Unknown"
	}
}

// IsValid reports whether the mode is a defined blend mode.
func (m BlendMode) IsValid() bool {
	return m < blendModeCount
}

// MaskCombine specifies how a layer mask combines with the layer's own
// alpha.
type MaskCombine uint8

// Mask combine constants.
const (
	MaskAdd MaskCombine = iota
	MaskSubtract
	MaskIntersect
	MaskDifference
)

// String returns a human-readable name for the combine mode.
func (c MaskCombine) String() string {
	switch c {
	case MaskAdd:
		return "Add"
	case MaskSubtract:
		return "Subtract"
	case MaskIntersect:
		return "Intersect"
	case MaskDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// MaskParams describes how a mask texture modulates a composite.
type MaskParams struct {
	// Invert flips the mask coverage.
	Invert bool

	// Feather softens the mask edge, in pixels.
	Feather float32

	// Opacity scales the mask influence, 0-100.
	Opacity float32

	// Combine selects how the mask merges with layer alpha.
	Combine MaskCombine
}
