package soft

import (
	"image"
	"math"

	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/internal/blendmath"
)

// ops maps pragma names to CPU implementations. Every built-in
// fragment shader has an entry; the formulas mirror the WGSL sources
// exactly so both devices produce the same pixels.
var ops = map[string]opFunc{
	"copy":                opCopy,
	"image":               opImage,
	"composite":           opComposite,
	"brightness-contrast": opBrightnessContrast,
	"hue-saturation":      opHueSaturation,
	"grayscale":           opGrayscale,
	"invert":              opInvert,
	"gamma":               opGamma,
	"sepia":               opSepia,
	"vibrance":            opVibrance,
	"tint":                opTint,
	"blur":                opBlur,
}

func u8(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func at(t *texture, x, y int) compose.ColorF32 {
	i := (y*t.w + x) * 4
	return compose.ColorF32{
		R: float32(t.pix[i]) / 255,
		G: float32(t.pix[i+1]) / 255,
		B: float32(t.pix[i+2]) / 255,
		A: float32(t.pix[i+3]) / 255,
	}
}

func set(t *texture, x, y int, c compose.ColorF32) {
	i := (y*t.w + x) * 4
	t.pix[i] = u8(c.R)
	t.pix[i+1] = u8(c.G)
	t.pix[i+2] = u8(c.B)
	t.pix[i+3] = u8(c.A)
}

// sample reads the texture at normalized (u, v) with bilinear
// filtering and clamp-to-edge addressing.
func sample(t *texture, u, v float32) compose.ColorF32 {
	fx := u*float32(t.w) - 0.5
	fy := v*float32(t.h) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := at(t, clampi(x0, t.w-1), clampi(y0, t.h-1))
	c10 := at(t, clampi(x0+1, t.w-1), clampi(y0, t.h-1))
	c01 := at(t, clampi(x0, t.w-1), clampi(y0+1, t.h-1))
	c11 := at(t, clampi(x0+1, t.w-1), clampi(y0+1, t.h-1))

	top := lerpColor(c00, c10, tx)
	bot := lerpColor(c01, c11, tx)
	return lerpColor(top, bot, ty)
}

func clampi(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func lerpColor(a, b compose.ColorF32, t float32) compose.ColorF32 {
	return compose.ColorF32{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

func uf(u gpu.Uniforms, name string, def float32) float32 {
	if v, ok := u[name]; ok {
		return v.Float32()
	}
	return def
}

func ui(u gpu.Uniforms, name string, def int32) int32 {
	if v, ok := u[name]; ok {
		if v.Kind == gpu.UniformInt {
			return v.Int
		}
		return int32(v.Float32())
	}
	return def
}

func uvec(u gpu.Uniforms, name string) [4]float32 {
	if v, ok := u[name]; ok {
		return [4]float32{v.Floats[0], v.Floats[1], v.Floats[2], v.Floats[3]}
	}
	return [4]float32{}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// eachPixel maps src texels through fn into target. src and target
// have matching sizes in every pipeline use; mismatches fall back to
// bilinear sampling.
func eachPixel(target, src *texture, fn func(c compose.ColorF32) compose.ColorF32) {
	if src.w == target.w && src.h == target.h {
		for y := 0; y < target.h; y++ {
			for x := 0; x < target.w; x++ {
				set(target, x, y, fn(at(src, x, y)))
			}
		}
		return
	}
	for y := 0; y < target.h; y++ {
		v := (float32(y) + 0.5) / float32(target.h)
		for x := 0; x < target.w; x++ {
			u := (float32(x) + 0.5) / float32(target.w)
			set(target, x, y, fn(sample(src, u, v)))
		}
	}
}

func opCopy(_ *Device, target *texture, _ gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 { return c })
	return nil
}

// opImage places the source into its placement rectangle. The
// unoriented case scales through x/image/draw; EXIF orientations go
// through the per-pixel sampler with remapped coordinates.
func opImage(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	place := uvec(uniforms, "placement")
	orientation := compose.Orientation(ui(uniforms, "orientation", 1))

	for i := range target.pix {
		target.pix[i] = 0
	}
	if place[2] <= 0 || place[3] <= 0 {
		return nil
	}

	if orientation == compose.OrientNormal || orientation == 0 {
		dst := &image.RGBA{Pix: target.pix, Stride: target.w * 4, Rect: image.Rect(0, 0, target.w, target.h)}
		srcImg := &image.RGBA{Pix: src.pix, Stride: src.w * 4, Rect: image.Rect(0, 0, src.w, src.h)}
		r := image.Rect(
			int(place[0]), int(place[1]),
			int(place[0]+place[2]), int(place[1]+place[3]))
		xdraw.BiLinear.Scale(dst, r, srcImg, srcImg.Bounds(), xdraw.Src, nil)
		return nil
	}

	for y := 0; y < target.h; y++ {
		py := float32(y) + 0.5
		ly := (py - place[1]) / place[3]
		if ly < 0 || ly > 1 {
			continue
		}
		for x := 0; x < target.w; x++ {
			px := float32(x) + 0.5
			lx := (px - place[0]) / place[2]
			if lx < 0 || lx > 1 {
				continue
			}
			u, v := orient(lx, ly, orientation)
			set(target, x, y, sample(src, u, v))
		}
	}
	return nil
}

// orient remaps normalized coordinates for an EXIF orientation,
// matching the shader's switch.
func orient(u, v float32, o compose.Orientation) (float32, float32) {
	switch o {
	case compose.OrientFlipH:
		return 1 - u, v
	case compose.OrientRotate180:
		return 1 - u, 1 - v
	case compose.OrientFlipV:
		return u, 1 - v
	case compose.OrientTranspose:
		return v, u
	case compose.OrientRotate90:
		return v, 1 - u
	case compose.OrientTransverse:
		return 1 - v, 1 - u
	case compose.OrientRotate270:
		return 1 - v, u
	default:
		return u, v
	}
}

func opComposite(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	base := channels["channel0"]
	top := channels["channel1"]
	if base == nil || top == nil {
		return gpu.ErrNoTarget
	}
	mask := channels["maskTexture"]

	mode := compose.BlendMode(ui(uniforms, "blendMode", 0))
	opacity := uf(uniforms, "opacity", 100)
	maskEnabled := ui(uniforms, "maskEnabled", 0) != 0 && mask != nil
	maskInvert := ui(uniforms, "maskInvert", 0) != 0
	maskFeather := uf(uniforms, "maskFeather", 0)
	maskOpacity := uf(uniforms, "maskOpacity", 100)
	maskCombine := compose.MaskCombine(ui(uniforms, "maskCombine", 0))

	for y := 0; y < target.h; y++ {
		v := (float32(y) + 0.5) / float32(target.h)
		for x := 0; x < target.w; x++ {
			u := (float32(x) + 0.5) / float32(target.w)
			b := pick(base, target, x, y, u, v)
			t := pick(top, target, x, y, u, v)

			// Fold layer opacity and mask coverage into the top alpha,
			// then blend at full opacity; matches the shader's
			// sa = mask_coverage(top.a * opacity).
			sa := t.A * clamp01(opacity/100)
			if maskEnabled {
				m := maskValue(mask, u, v, maskFeather, target.w, target.h)
				if maskInvert {
					m = 1 - m
				}
				m *= clamp01(maskOpacity / 100)
				switch maskCombine {
				case compose.MaskSubtract:
					sa = clamp01(sa - m)
				case compose.MaskIntersect:
					sa = sa * m
				case compose.MaskDifference:
					sa = math32.Abs(sa - m)
				default: // MaskAdd
					sa = clamp01(sa*m + m*(1-sa))
				}
			}
			t.A = sa
			set(target, x, y, blendmath.Composite(b, t, mode, 100))
		}
	}
	return nil
}

// maskValue reads the mask coverage, feathered by a 3x3 tent tap at
// feather-pixel offsets; mirrors the composite shader's mask_value.
func maskValue(mask *texture, u, v, feather float32, tw, th int) float32 {
	center := sample(mask, u, v).R
	if feather <= 0 {
		return center
	}
	ou := feather / float32(tw)
	ov := feather / float32(th)
	sum := center * 4
	sum += sample(mask, u+ou, v).R * 2
	sum += sample(mask, u-ou, v).R * 2
	sum += sample(mask, u, v+ov).R * 2
	sum += sample(mask, u, v-ov).R * 2
	sum += sample(mask, u+ou, v+ov).R
	sum += sample(mask, u-ou, v-ov).R
	sum += sample(mask, u+ou, v-ov).R
	sum += sample(mask, u-ou, v+ov).R
	return sum / 16
}

// pick reads a channel, fast-pathing equal-size textures.
func pick(t, target *texture, x, y int, u, v float32) compose.ColorF32 {
	if t.w == target.w && t.h == target.h {
		return at(t, x, y)
	}
	return sample(t, u, v)
}

func opBrightnessContrast(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	brightness := uf(uniforms, "brightness", 0) / 100
	k := (uf(uniforms, "contrast", 0) + 100) / 100
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		c.R = clamp01((c.R+brightness-0.5)*k + 0.5)
		c.G = clamp01((c.G+brightness-0.5)*k + 0.5)
		c.B = clamp01((c.B+brightness-0.5)*k + 0.5)
		return c
	})
	return nil
}

func opHueSaturation(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	hue := uf(uniforms, "hue", 0) / 360
	saturation := uf(uniforms, "saturation", 100) / 100
	lightness := uf(uniforms, "lightness", 0) / 100
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		h, s, l := rgbToHSL(c.R, c.G, c.B)
		h = fract(h + hue)
		s = clamp01(s * saturation)
		l = clamp01(l + lightness)
		c.R, c.G, c.B = hslToRGB(h, s, l)
		return c
	})
	return nil
}

func opGrayscale(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	amount := clamp01(uf(uniforms, "amount", 100) / 100)
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		l := 0.30*c.R + 0.59*c.G + 0.11*c.B
		c.R += (l - c.R) * amount
		c.G += (l - c.G) * amount
		c.B += (l - c.B) * amount
		return c
	})
	return nil
}

func opInvert(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	amount := clamp01(uf(uniforms, "amount", 100) / 100)
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		c.R += (1 - 2*c.R) * amount
		c.G += (1 - 2*c.G) * amount
		c.B += (1 - 2*c.B) * amount
		return c
	})
	return nil
}

func opGamma(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	g := 1 / math32.Max(uf(uniforms, "gamma", 1), 0.1)
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		c.R = math32.Pow(math32.Max(c.R, 0), g)
		c.G = math32.Pow(math32.Max(c.G, 0), g)
		c.B = math32.Pow(math32.Max(c.B, 0), g)
		return c
	})
	return nil
}

func opSepia(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	amount := clamp01(uf(uniforms, "amount", 100) / 100)
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		sr := math32.Min(0.393*c.R+0.769*c.G+0.189*c.B, 1)
		sg := math32.Min(0.349*c.R+0.686*c.G+0.168*c.B, 1)
		sb := math32.Min(0.272*c.R+0.534*c.G+0.131*c.B, 1)
		c.R += (sr - c.R) * amount
		c.G += (sg - c.G) * amount
		c.B += (sb - c.B) * amount
		return c
	})
	return nil
}

func opVibrance(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	amount := uf(uniforms, "amount", 0) / 100
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		mx := math32.Max(math32.Max(c.R, c.G), c.B)
		avg := (c.R + c.G + c.B) / 3
		amt := (mx - avg) * amount * 3
		c.R = clamp01(c.R + (mx-c.R)*-amt)
		c.G = clamp01(c.G + (mx-c.G)*-amt)
		c.B = clamp01(c.B + (mx-c.B)*-amt)
		return c
	})
	return nil
}

func opTint(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	amount := clamp01(uf(uniforms, "amount", 50) / 100)
	tc := uvec(uniforms, "color")
	eachPixel(target, src, func(c compose.ColorF32) compose.ColorF32 {
		l := 0.30*c.R + 0.59*c.G + 0.11*c.B
		c.R += (tc[0]*l - c.R) * amount
		c.G += (tc[1]*l - c.G) * amount
		c.B += (tc[2]*l - c.B) * amount
		return c
	})
	return nil
}

func opBlur(_ *Device, target *texture, uniforms gpu.Uniforms, channels map[string]*texture) error {
	src := channels["channel0"]
	if src == nil {
		return gpu.ErrNoTarget
	}
	radius := math32.Max(uf(uniforms, "radius", 0), 0)
	if radius < 0.5 {
		return opCopy(nil, target, nil, channels)
	}
	dir := uvec(uniforms, "direction")
	tu := dir[0] / float32(target.w)
	tv := dir[1] / float32(target.h)
	sigma := radius / 2
	taps := int(math.Min(float64(radius), 32))

	for y := 0; y < target.h; y++ {
		v := (float32(y) + 0.5) / float32(target.h)
		for x := 0; x < target.w; x++ {
			u := (float32(x) + 0.5) / float32(target.w)
			sum := sample(src, u, v)
			weightSum := float32(1)
			for i := 1; i <= taps; i++ {
				fx := float32(i)
				w := math32.Exp(-(fx * fx) / (2 * sigma * sigma))
				a := sample(src, u+tu*fx, v+tv*fx)
				b := sample(src, u-tu*fx, v-tv*fx)
				sum.R += (a.R + b.R) * w
				sum.G += (a.G + b.G) * w
				sum.B += (a.B + b.B) * w
				sum.A += (a.A + b.A) * w
				weightSum += 2 * w
			}
			set(target, x, y, compose.ColorF32{
				R: sum.R / weightSum,
				G: sum.G / weightSum,
				B: sum.B / weightSum,
				A: sum.A / weightSum,
			})
		}
	}
	return nil
}

func fract(v float32) float32 {
	return v - math32.Floor(v)
}

// rgbToHSL and hslToRGB mirror the shader's HSL conversion.
func rgbToHSL(r, g, b float32) (h, s, l float32) {
	mx := math32.Max(math32.Max(r, g), b)
	mn := math32.Min(math32.Min(r, g), b)
	l = (mx + mn) / 2
	if mx == mn {
		return 0, 0, l
	}
	d := mx - mn
	if l > 0.5 {
		s = d / (2 - mx - mn)
	} else {
		s = d / (mx + mn)
	}
	switch mx {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hueChannel(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func hslToRGB(h, s, l float32) (r, g, b float32) {
	if s == 0 {
		return l, l, l
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueChannel(p, q, h+1.0/3), hueChannel(p, q, h), hueChannel(p, q, h-1.0/3)
}
