package compose

import "fmt"

// ValueKind identifies the type of a parameter value.
type ValueKind uint8

// Value kind constants.
const (
	// ValueScalar is a single float parameter (brightness, gamma, ...).
	ValueScalar ValueKind = iota

	// ValueVec2 is a two-component vector (offset, anchor, ...).
	ValueVec2

	// ValueVec3 is a three-component vector.
	ValueVec3

	// ValueVec4 is a four-component vector.
	ValueVec4

	// ValueBool is a boolean parameter, sampled stepped (no interpolation).
	ValueBool

	// ValueEnum is an integer selector, sampled stepped.
	ValueEnum

	// ValueColor is an RGBA color, interpolated in linear space.
	ValueColor
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueScalar:
		return "Scalar"
	case ValueVec2:
		return "Vec2"
	case ValueVec3:
		return "Vec3"
	case ValueVec4:
		return "Vec4"
	case ValueBool:
		return "Bool"
	case ValueEnum:
		return "Enum"
	case ValueColor:
		return "Color"
	default:
		return "Unknown"
	}
}

// Value is a tagged parameter value. Exactly the fields implied by Kind
// are meaningful; the rest are zero.
type Value struct {
	// Kind selects which of the fields below carries the value.
	Kind ValueKind

	// Vec holds scalar (X only) and vector components.
	Vec [4]float32

	// Bool holds boolean values.
	Bool bool

	// Enum holds integer selector values.
	Enum int32

	// Color holds color values.
	Color ColorF32
}

// Scalar wraps a float in a Value.
func Scalar(v float32) Value {
	return Value{Kind: ValueScalar, Vec: [4]float32{v}}
}

// Vec2 wraps two components in a Value.
func Vec2(x, y float32) Value {
	return Value{Kind: ValueVec2, Vec: [4]float32{x, y}}
}

// Vec3 wraps three components in a Value.
func Vec3(x, y, z float32) Value {
	return Value{Kind: ValueVec3, Vec: [4]float32{x, y, z}}
}

// Vec4 wraps four components in a Value.
func Vec4(x, y, z, w float32) Value {
	return Value{Kind: ValueVec4, Vec: [4]float32{x, y, z, w}}
}

// Bool wraps a boolean in a Value.
func Bool(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// Enum wraps an integer selector in a Value.
func Enum(e int32) Value {
	return Value{Kind: ValueEnum, Enum: e}
}

// Color wraps a color in a Value.
func Color(c ColorF32) Value {
	return Value{Kind: ValueColor, Color: c}
}

// Float returns the scalar component. For vectors it returns the first
// component; for bools 0 or 1; for enums the selector as a float.
func (v Value) Float() float32 {
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			return 1
		}
		return 0
	case ValueEnum:
		return float32(v.Enum)
	default:
		return v.Vec[0]
	}
}

// Components returns the number of meaningful vector components.
func (v Value) Components() int {
	switch v.Kind {
	case ValueScalar:
		return 1
	case ValueVec2:
		return 2
	case ValueVec3:
		return 3
	case ValueVec4:
		return 4
	default:
		return 0
	}
}

// Domain is an inclusive numeric range a parameter must stay within.
type Domain struct {
	Min, Max float32
}

// Clamp clamps v to the domain.
func (d Domain) Clamp(v float32) float32 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// Contains reports whether v lies inside the domain.
func (d Domain) Contains(v float32) bool {
	return v >= d.Min && v <= d.Max
}

// String returns the domain as "[min, max]".
func (d Domain) String() string {
	return fmt.Sprintf("[%g, %g]", d.Min, d.Max)
}

// ParamSpec declares a parameter: its value kind, numeric domain for
// scalar-like kinds, default value, and whether scalar interpolation
// should take the shortest arc (angles in degrees).
type ParamSpec struct {
	// Name is the parameter identifier used in tracks and uniforms.
	Name string

	// Kind is the parameter's value kind.
	Kind ValueKind

	// Domain bounds scalar and per-component vector values.
	Domain Domain

	// Default is the value a fresh track is seeded with.
	Default Value

	// Angular marks scalar parameters interpolated along the shortest
	// arc in degrees (hue, rotation).
	Angular bool
}

// ClampValue clamps a sampled value to the declared domain. Colors are
// clamped per component to [0,1]; bools and enums pass through.
func (p ParamSpec) ClampValue(v Value) Value {
	switch v.Kind {
	case ValueScalar, ValueVec2, ValueVec3, ValueVec4:
		n := v.Components()
		for i := 0; i < n; i++ {
			v.Vec[i] = p.Domain.Clamp(v.Vec[i])
		}
		return v
	case ValueColor:
		v.Color = v.Color.Clamped()
		return v
	default:
		return v
	}
}
