package gpu

// UniformKind identifies the GPU type of a uniform value.
type UniformKind uint8

// Uniform kind constants.
const (
	UniformFloat UniformKind = iota
	UniformInt
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
)

// String returns a human-readable name for the uniform kind.
func (k UniformKind) String() string {
	switch k {
	case UniformFloat:
		return "Float"
	case UniformInt:
		return "Int"
	case UniformVec2:
		return "Vec2"
	case UniformVec3:
		return "Vec3"
	case UniformVec4:
		return "Vec4"
	case UniformMat3:
		return "Mat3"
	case UniformMat4:
		return "Mat4"
	default:
		return "Unknown"
	}
}

// Uniform is one typed uniform value. Floats holds as many components
// as the kind requires (up to 16 for Mat4); Int carries integer and
// boolean-as-int values.
type Uniform struct {
	Kind   UniformKind
	Floats [16]float32
	Int    int32
}

// Uniforms maps uniform names to values for one draw call.
type Uniforms map[string]Uniform

// Float wraps a scalar uniform.
func Float(v float32) Uniform {
	return Uniform{Kind: UniformFloat, Floats: [16]float32{v}}
}

// Int wraps an integer uniform.
func Int(v int32) Uniform {
	return Uniform{Kind: UniformInt, Int: v}
}

// Bool wraps a boolean as the conventional 0/1 integer uniform.
func Bool(v bool) Uniform {
	if v {
		return Int(1)
	}
	return Int(0)
}

// Vec2 wraps a two-component uniform.
func Vec2(x, y float32) Uniform {
	return Uniform{Kind: UniformVec2, Floats: [16]float32{x, y}}
}

// Vec3 wraps a three-component uniform.
func Vec3(x, y, z float32) Uniform {
	return Uniform{Kind: UniformVec3, Floats: [16]float32{x, y, z}}
}

// Vec4 wraps a four-component uniform.
func Vec4(x, y, z, w float32) Uniform {
	return Uniform{Kind: UniformVec4, Floats: [16]float32{x, y, z, w}}
}

// Mat3 wraps a column-major 3x3 matrix uniform.
func Mat3(m [9]float32) Uniform {
	u := Uniform{Kind: UniformMat3}
	copy(u.Floats[:], m[:])
	return u
}

// Mat4 wraps a column-major 4x4 matrix uniform.
func Mat4(m [16]float32) Uniform {
	u := Uniform{Kind: UniformMat4}
	copy(u.Floats[:], m[:])
	return u
}

// Float32 returns the first float component.
func (u Uniform) Float32() float32 { return u.Floats[0] }

// Merge returns a copy of base overlaid with extra. Extra wins on
// conflicts; either map may be nil.
func Merge(base, extra Uniforms) Uniforms {
	out := make(Uniforms, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
