package anim

import (
	"math"
	"testing"

	"github.com/gogpu/compose"
)

func TestEasingEndpoints(t *testing.T) {
	kinds := []compose.EasingKind{
		compose.EaseLinear,
		compose.EaseInQuad, compose.EaseOutQuad, compose.EaseInOutQuad,
		compose.EaseInCubic, compose.EaseOutCubic, compose.EaseInOutCubic,
		compose.EaseInSine, compose.EaseOutSine, compose.EaseInOutSine,
		compose.EaseOutBack, compose.EaseOutElastic, compose.EaseOutBounce,
	}
	const tol = 1e-5
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			if got := Ease(k, 0); math.Abs(float64(got)) > tol {
				t.Errorf("Ease(%s, 0) = %v, want 0", k, got)
			}
			if got := Ease(k, 1); math.Abs(float64(got)-1) > tol {
				t.Errorf("Ease(%s, 1) = %v, want 1", k, got)
			}
		})
	}
}

func TestEaseLinearIsIdentity(t *testing.T) {
	for _, v := range []float32{0, 0.25, 0.5, 0.75, 1} {
		if got := Ease(compose.EaseLinear, v); got != v {
			t.Errorf("Ease(Linear, %v) = %v", v, got)
		}
	}
}

func TestEaseUnknownFallsBackToLinear(t *testing.T) {
	if got := Ease(compose.EasingKind(250), 0.3); got != 0.3 {
		t.Errorf("unknown easing = %v, want 0.3", got)
	}
}

func TestEaseOutBackOvershoots(t *testing.T) {
	var peak float32
	for i := 0; i <= 100; i++ {
		v := Ease(compose.EaseOutBack, float32(i)/100)
		if v > peak {
			peak = v
		}
	}
	if peak <= 1 {
		t.Errorf("OutBack never overshot: peak %v", peak)
	}
}
