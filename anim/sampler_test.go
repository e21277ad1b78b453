package anim

import (
	"math"
	"testing"

	"github.com/gogpu/compose"
)

func scalarSpec(min, max float32) compose.ParamSpec {
	return compose.ParamSpec{
		Name:   "value",
		Kind:   compose.ValueScalar,
		Domain: compose.Domain{Min: min, Max: max},
	}
}

func TestSampleSingleKeyframeIsConstant(t *testing.T) {
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 2, Value: compose.Scalar(42)})

	for _, at := range []float64{-1e12, -1, 0, 2, 3, 1e12, math.Inf(-1), math.Inf(1)} {
		if got := Sample(spec, tr, at).Float(); got != 42 {
			t.Errorf("Sample at t=%v = %v, want 42", at, got)
		}
	}
}

func TestSampleClampsToBoundaryKeyframes(t *testing.T) {
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 1, Value: compose.Scalar(10)})
	tr.Set(compose.Keyframe{Time: 3, Value: compose.Scalar(30)})

	if got := Sample(spec, tr, -5).Float(); got != 10 {
		t.Errorf("before first = %v, want 10", got)
	}
	if got := Sample(spec, tr, 99).Float(); got != 30 {
		t.Errorf("after last = %v, want 30", got)
	}
}

func TestSampleLinearScalar(t *testing.T) {
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(0)})
	tr.Set(compose.Keyframe{Time: 2, Value: compose.Scalar(10)})

	if got := Sample(spec, tr, 1).Float(); got != 5 {
		t.Errorf("midpoint = %v, want 5", got)
	}
	if got := Sample(spec, tr, 0.5).Float(); got != 2.5 {
		t.Errorf("quarter = %v, want 2.5", got)
	}
}

func TestSampleVectorComponentwise(t *testing.T) {
	spec := compose.ParamSpec{
		Name:   "offset",
		Kind:   compose.ValueVec2,
		Domain: compose.Domain{Min: -1000, Max: 1000},
	}
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Vec2(0, 100)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Vec2(10, 200)})

	got := Sample(spec, tr, 0.5)
	if got.Vec[0] != 5 || got.Vec[1] != 150 {
		t.Errorf("Sample = (%v, %v), want (5, 150)", got.Vec[0], got.Vec[1])
	}
}

func TestSampleSteppedKindsHoldLeftValue(t *testing.T) {
	spec := compose.ParamSpec{Name: "enabled", Kind: compose.ValueBool}
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Bool(false)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Bool(true)})

	if got := Sample(spec, tr, 0.99); got.Bool {
		t.Error("bool interpolated before the right keyframe")
	}
	if got := Sample(spec, tr, 1); !got.Bool {
		t.Error("bool did not switch at the right keyframe")
	}
}

func TestSampleSteppedInterpHoldsSpan(t *testing.T) {
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(1), Interp: compose.InterpStepped})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Scalar(9)})

	if got := Sample(spec, tr, 0.5).Float(); got != 1 {
		t.Errorf("stepped span = %v, want 1", got)
	}
}

func TestSampleAngularShortestArc(t *testing.T) {
	spec := compose.ParamSpec{
		Name:    "hue",
		Kind:    compose.ValueScalar,
		Domain:  compose.Domain{Min: -180, Max: 180},
		Angular: true,
	}
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(170)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Scalar(-170)})

	// The short way from 170 to -170 crosses 180, not 0.
	got := Sample(spec, tr, 0.5).Float()
	if math.Abs(math.Abs(float64(got))-180) > 1e-4 {
		t.Errorf("shortest arc midpoint = %v, want +-180", got)
	}
	quarter := Sample(spec, tr, 0.25).Float()
	if math.Abs(float64(quarter)-175) > 1e-4 {
		t.Errorf("shortest arc quarter = %v, want 175", quarter)
	}
}

func TestSampleColorExactAtKeyframes(t *testing.T) {
	spec := compose.ParamSpec{Name: "color", Kind: compose.ValueColor}
	a := compose.ColorF32{R: 0.8, G: 0.2, B: 0.4, A: 1}
	b := compose.ColorF32{R: 0.1, G: 0.9, B: 0.3, A: 0.5}
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Color(a)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Color(b)})

	if got := Sample(spec, tr, 0).Color; got != a {
		t.Errorf("at first keyframe = %v, want %v", got, a)
	}
	if got := Sample(spec, tr, 1).Color; got != b {
		t.Errorf("at last keyframe = %v, want %v", got, b)
	}
	if got := Sample(spec, tr, -1).Color; got != a {
		t.Errorf("before first keyframe = %v, want %v", got, a)
	}
}

func TestSampleColorNearBoundaryRoundTrips(t *testing.T) {
	// Interpolating at progress ~0 goes through linear space and back;
	// the result must match the keyframe within float tolerance.
	spec := compose.ParamSpec{Name: "color", Kind: compose.ValueColor}
	a := compose.ColorF32{R: 0.8, G: 0.2, B: 0.4, A: 1}
	b := compose.ColorF32{R: 0.1, G: 0.9, B: 0.3, A: 1}
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Color(a)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Color(b)})

	got := Sample(spec, tr, 1e-9).Color
	const tol = 1e-4
	if math.Abs(float64(got.R-a.R)) > tol ||
		math.Abs(float64(got.G-a.G)) > tol ||
		math.Abs(float64(got.B-a.B)) > tol {
		t.Errorf("near-boundary sample = %v, want ~%v", got, a)
	}
}

func TestSampleClampsToDomain(t *testing.T) {
	spec := scalarSpec(0, 10)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(-50)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Scalar(50)})

	if got := Sample(spec, tr, 0).Float(); got != 0 {
		t.Errorf("below domain = %v, want 0", got)
	}
	if got := Sample(spec, tr, 1).Float(); got != 10 {
		t.Errorf("above domain = %v, want 10", got)
	}
}

func TestSamplerMemoizes(t *testing.T) {
	s := NewSampler(16)
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(0)})
	tr.Set(compose.Keyframe{Time: 1, Value: compose.Scalar(10)})

	first := s.Sample(1, spec, tr, 0.5)
	second := s.Sample(1, spec, tr, 0.5)
	if first != second {
		t.Fatalf("memoized sample differs: %v vs %v", first, second)
	}
	if stats := s.Stats(); stats.Hits == 0 {
		t.Errorf("no cache hits after repeated sample: %+v", stats)
	}
}

func TestSamplerSeesTrackEdits(t *testing.T) {
	s := NewSampler(16)
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(5)})

	if got := s.Sample(1, spec, tr, 0).Float(); got != 5 {
		t.Fatalf("initial sample = %v, want 5", got)
	}
	tr.Set(compose.Keyframe{Time: 0, Value: compose.Scalar(7)})
	if got := s.Sample(1, spec, tr, 0).Float(); got != 7 {
		t.Errorf("post-edit sample = %v, want 7 (stale memo)", got)
	}
}

func TestSamplerInvalidate(t *testing.T) {
	s := NewSampler(16)
	spec := scalarSpec(-100, 100)
	tr := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(5)})

	s.Sample(1, spec, tr, 0)
	s.Sample(2, spec, tr, 0)
	s.Invalidate(1, "value")

	// Replacing the track object wholesale keeps the edit counter at
	// zero; only Invalidate protects against that.
	replacement := compose.NewTrack(compose.Keyframe{Time: 0, Value: compose.Scalar(9)})
	if got := s.Sample(1, spec, tr, 0); got.Float() != 5 {
		t.Errorf("layer 1 resample = %v, want 5", got.Float())
	}
	if got := s.Sample(3, spec, replacement, 0); got.Float() != 9 {
		t.Errorf("replacement track sample = %v, want 9", got.Float())
	}
}
