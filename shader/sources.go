package shader

import (
	_ "embed"

	"github.com/gogpu/compose/gpu"
)

// Built-in shader names. The built-in set covers layer compositing and
// every adjustment kind the renderer knows.
const (
	NameComposite          = "composite"
	NameCopy               = "copy"
	NameImage              = "image"
	NameBrightnessContrast = "brightness-contrast"
	NameHueSaturation      = "hue-saturation"
	NameGrayscale          = "grayscale"
	NameInvert             = "invert"
	NameGamma              = "gamma"
	NameSepia              = "sepia"
	NameVibrance           = "vibrance"
	NameTint               = "tint"
	NameBlur               = "blur"
)

// BuiltinVersion is the version registered for every built-in shader.
const BuiltinVersion = "1"

// FullscreenVertexSource is the shared vertex stage: a single triangle
// covering the viewport, uv passed to the fragment stage. Used whenever
// a descriptor leaves Vertex empty.
//
//go:embed shaders/fullscreen.wgsl
var FullscreenVertexSource string

//go:embed shaders/composite.wgsl
var compositeSource string

//go:embed shaders/copy.wgsl
var copySource string

//go:embed shaders/image.wgsl
var imageSource string

//go:embed shaders/brightness_contrast.wgsl
var brightnessContrastSource string

//go:embed shaders/hue_saturation.wgsl
var hueSaturationSource string

//go:embed shaders/grayscale.wgsl
var grayscaleSource string

//go:embed shaders/invert.wgsl
var invertSource string

//go:embed shaders/gamma.wgsl
var gammaSource string

//go:embed shaders/sepia.wgsl
var sepiaSource string

//go:embed shaders/vibrance.wgsl
var vibranceSource string

//go:embed shaders/tint.wgsl
var tintSource string

//go:embed shaders/blur.wgsl
var blurSource string

// Builtins returns a fresh descriptor set for the built-in shaders.
// Callers register the result with a Registry; each call returns new
// descriptor values so registries never share mutable state.
func Builtins() []*Descriptor {
	single := func(name, fragment string, defaults gpu.Uniforms) *Descriptor {
		return &Descriptor{
			Name:     name,
			Version:  BuiltinVersion,
			Fragment: fragment,
			Defaults: defaults,
		}
	}

	return []*Descriptor{
		single(NameComposite, compositeSource, gpu.Uniforms{
			"blendMode":   gpu.Int(0),
			"maskCombine": gpu.Int(0),
			"maskEnabled": gpu.Bool(false),
			"maskFeather": gpu.Float(0),
			"maskInvert":  gpu.Bool(false),
			"maskOpacity": gpu.Float(100),
			"opacity":     gpu.Float(100),
		}),
		single(NameCopy, copySource, nil),
		single(NameImage, imageSource, gpu.Uniforms{
			"orientation": gpu.Int(1),
			"placement":   gpu.Vec4(0, 0, 1, 1),
		}),
		single(NameBrightnessContrast, brightnessContrastSource, gpu.Uniforms{
			"brightness": gpu.Float(0),
			"contrast":   gpu.Float(0),
		}),
		single(NameHueSaturation, hueSaturationSource, gpu.Uniforms{
			"hue":        gpu.Float(0),
			"lightness":  gpu.Float(0),
			"saturation": gpu.Float(100),
		}),
		single(NameGrayscale, grayscaleSource, gpu.Uniforms{
			"amount": gpu.Float(100),
		}),
		single(NameInvert, invertSource, gpu.Uniforms{
			"amount": gpu.Float(100),
		}),
		single(NameGamma, gammaSource, gpu.Uniforms{
			"gamma": gpu.Float(1),
		}),
		single(NameSepia, sepiaSource, gpu.Uniforms{
			"amount": gpu.Float(100),
		}),
		single(NameVibrance, vibranceSource, gpu.Uniforms{
			"amount": gpu.Float(0),
		}),
		single(NameTint, tintSource, gpu.Uniforms{
			"amount": gpu.Float(50),
			"color":  gpu.Vec4(1, 1, 1, 1),
		}),
		{
			Name:    NameBlur,
			Version: BuiltinVersion,
			Passes: []Pass{
				{ID: "h", Fragment: blurSource},
				{ID: "v", Fragment: blurSource, Inputs: []string{"h"}},
			},
			Defaults: gpu.Uniforms{
				"radius": gpu.Float(0),
			},
		},
	}
}
