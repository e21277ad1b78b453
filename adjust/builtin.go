package adjust

import (
	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/shader"
)

func init() {
	Register(&brightnessContrast{})
	Register(&hueSaturation{})
	Register(&amountPlugin{kind: compose.AdjustGrayscale, shaderName: shader.NameGrayscale, def: 100})
	Register(&amountPlugin{kind: compose.AdjustInvert, shaderName: shader.NameInvert, def: 100})
	Register(&gamma{})
	Register(&amountPlugin{kind: compose.AdjustSepia, shaderName: shader.NameSepia, def: 100})
	Register(&vibrance{})
	Register(&tint{})
	Register(&blur{})
}

// single builds a one-pass invocation of a built-in shader.
func single(name string, uniforms gpu.Uniforms) []shader.PassInvocation {
	return []shader.PassInvocation{{
		Shader:   name,
		Version:  shader.BuiltinVersion,
		Uniforms: uniforms,
	}}
}

type brightnessContrast struct{}

func (brightnessContrast) Kind() compose.AdjustmentKind { return compose.AdjustBrightnessContrast }

func (brightnessContrast) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "brightness", Kind: compose.ValueScalar, Domain: compose.Domain{Min: -100, Max: 100}, Default: compose.Scalar(0)},
		{Name: "contrast", Kind: compose.ValueScalar, Domain: compose.Domain{Min: -100, Max: 100}, Default: compose.Scalar(0)},
	}
}

func (p brightnessContrast) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	specs := p.Params()
	return single(shader.NameBrightnessContrast, gpu.Uniforms{
		"brightness": gpu.Float(paramOr(params, specs, "brightness").Float()),
		"contrast":   gpu.Float(paramOr(params, specs, "contrast").Float()),
	})
}

type hueSaturation struct{}

func (hueSaturation) Kind() compose.AdjustmentKind { return compose.AdjustHueSaturation }

func (hueSaturation) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "hue", Kind: compose.ValueScalar, Domain: compose.Domain{Min: -180, Max: 180}, Default: compose.Scalar(0), Angular: true},
		{Name: "saturation", Kind: compose.ValueScalar, Domain: compose.Domain{Min: 0, Max: 200}, Default: compose.Scalar(100)},
		{Name: "lightness", Kind: compose.ValueScalar, Domain: compose.Domain{Min: -100, Max: 100}, Default: compose.Scalar(0)},
	}
}

func (p hueSaturation) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	specs := p.Params()
	return single(shader.NameHueSaturation, gpu.Uniforms{
		"hue":        gpu.Float(paramOr(params, specs, "hue").Float()),
		"lightness":  gpu.Float(paramOr(params, specs, "lightness").Float()),
		"saturation": gpu.Float(paramOr(params, specs, "saturation").Float()),
	})
}

// amountPlugin serves adjustments with a single "amount" parameter in
// [0, 100].
type amountPlugin struct {
	kind       compose.AdjustmentKind
	shaderName string
	def        float32
}

func (p *amountPlugin) Kind() compose.AdjustmentKind { return p.kind }

func (p *amountPlugin) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "amount", Kind: compose.ValueScalar, Domain: compose.Domain{Min: 0, Max: 100}, Default: compose.Scalar(p.def)},
	}
}

func (p *amountPlugin) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	return single(p.shaderName, gpu.Uniforms{
		"amount": gpu.Float(paramOr(params, p.Params(), "amount").Float()),
	})
}

type gamma struct{}

func (gamma) Kind() compose.AdjustmentKind { return compose.AdjustGamma }

func (gamma) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "gamma", Kind: compose.ValueScalar, Domain: compose.Domain{Min: 0.1, Max: 3}, Default: compose.Scalar(1)},
	}
}

func (p gamma) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	return single(shader.NameGamma, gpu.Uniforms{
		"gamma": gpu.Float(paramOr(params, p.Params(), "gamma").Float()),
	})
}

type vibrance struct{}

func (vibrance) Kind() compose.AdjustmentKind { return compose.AdjustVibrance }

func (vibrance) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "amount", Kind: compose.ValueScalar, Domain: compose.Domain{Min: -100, Max: 100}, Default: compose.Scalar(0)},
	}
}

func (p vibrance) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	return single(shader.NameVibrance, gpu.Uniforms{
		"amount": gpu.Float(paramOr(params, p.Params(), "amount").Float()),
	})
}

type tint struct{}

func (tint) Kind() compose.AdjustmentKind { return compose.AdjustTint }

func (tint) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "amount", Kind: compose.ValueScalar, Domain: compose.Domain{Min: 0, Max: 100}, Default: compose.Scalar(50)},
		{Name: "color", Kind: compose.ValueColor, Default: compose.Color(compose.ColorF32{R: 1, G: 1, B: 1, A: 1})},
	}
}

func (p tint) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	specs := p.Params()
	c := paramOr(params, specs, "color").Color
	return single(shader.NameTint, gpu.Uniforms{
		"amount": gpu.Float(paramOr(params, specs, "amount").Float()),
		"color":  gpu.Vec4(c.R, c.G, c.B, c.A),
	})
}

type blur struct{}

func (blur) Kind() compose.AdjustmentKind { return compose.AdjustBlur }

func (blur) Params() []compose.ParamSpec {
	return []compose.ParamSpec{
		{Name: "radius", Kind: compose.ValueScalar, Domain: compose.Domain{Min: 0, Max: 250}, Default: compose.Scalar(0)},
	}
}

// MapParams emits both separable passes; the pipeline chains them
// through the pass graph, feeding "h" into "v".
func (p blur) MapParams(params map[string]compose.Value) []shader.PassInvocation {
	radius := paramOr(params, p.Params(), "radius").Float()
	return []shader.PassInvocation{
		{
			Shader:  shader.NameBlur,
			Version: shader.BuiltinVersion,
			Pass:    "h",
			Uniforms: gpu.Uniforms{
				"direction": gpu.Vec2(1, 0),
				"radius":    gpu.Float(radius),
			},
		},
		{
			Shader:  shader.NameBlur,
			Version: shader.BuiltinVersion,
			Pass:    "v",
			Uniforms: gpu.Uniforms{
				"direction": gpu.Vec2(0, 1),
				"radius":    gpu.Float(radius),
			},
		},
	}
}
