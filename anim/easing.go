// Package anim evaluates keyframe tracks into concrete parameter
// values: easing curves, per-kind interpolation, and a memoized
// sampler keyed by (layer, parameter, time).
package anim

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/compose"
)

// EasingFunc maps time progress in [0,1] to value progress in [0,1]
// (overshooting curves may leave the range on purpose).
type EasingFunc func(t float32) float32

// Ease applies the named easing curve to the progress fraction.
// Unknown kinds fall back to linear.
func Ease(kind compose.EasingKind, t float32) float32 {
	if f, ok := easings[kind]; ok {
		return f(t)
	}
	return t
}

var easings = map[compose.EasingKind]EasingFunc{
	compose.EaseLinear: func(t float32) float32 { return t },

	compose.EaseInQuad:  func(t float32) float32 { return t * t },
	compose.EaseOutQuad: func(t float32) float32 { return t * (2 - t) },
	compose.EaseInOutQuad: func(t float32) float32 {
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	},

	compose.EaseInCubic: func(t float32) float32 { return t * t * t },
	compose.EaseOutCubic: func(t float32) float32 {
		t--
		return t*t*t + 1
	},
	compose.EaseInOutCubic: func(t float32) float32 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return (t-1)*(2*t-2)*(2*t-2) + 1
	},

	compose.EaseInSine: func(t float32) float32 {
		return 1 - math32.Cos(t*math32.Pi/2)
	},
	compose.EaseOutSine: func(t float32) float32 {
		return math32.Sin(t * math32.Pi / 2)
	},
	compose.EaseInOutSine: func(t float32) float32 {
		return -(math32.Cos(math32.Pi*t) - 1) / 2
	},

	compose.EaseOutBack: func(t float32) float32 {
		const c1 = 1.70158
		const c3 = c1 + 1
		return 1 + c3*(t-1)*(t-1)*(t-1) + c1*(t-1)*(t-1)
	},

	compose.EaseOutElastic: func(t float32) float32 {
		if t == 0 || t == 1 {
			return t
		}
		const c4 = (2 * math32.Pi) / 3
		return math32.Pow(2, -10*t)*math32.Sin((t*10-0.75)*c4) + 1
	},

	compose.EaseOutBounce: easeOutBounce,
}

func easeOutBounce(t float32) float32 {
	const n1 = 7.5625
	const d1 = 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
