package anim

import (
	"hash/fnv"
	"math"

	"github.com/chewxy/math32"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/internal/cache"
	"github.com/gogpu/compose/internal/colorspace"
)

// Sample evaluates a track at time t. This is the pure core of the
// sampler: binary-search the bracketing keyframes, ease the local
// progress, interpolate by value kind, then clamp to the parameter's
// declared domain.
//
// Outside the keyframe range the boundary value is returned, so a
// single-keyframe track yields its value for every t.
func Sample(spec compose.ParamSpec, track *compose.Track, t float64) compose.Value {
	left, right := track.Bracket(t)

	if left.Time == right.Time {
		return spec.ClampValue(left.Value)
	}

	// Stepped spans and stepped kinds hold the left value.
	if left.Interp == compose.InterpStepped || stepped(left.Value.Kind) {
		return spec.ClampValue(left.Value)
	}

	progress := float32((t - left.Time) / (right.Time - left.Time))
	progress = Ease(left.Easing, progress)

	return spec.ClampValue(interpolate(spec, left.Value, right.Value, progress))
}

// stepped reports whether the kind never interpolates.
func stepped(k compose.ValueKind) bool {
	return k == compose.ValueBool || k == compose.ValueEnum
}

// interpolate blends two values of the same kind by progress p.
func interpolate(spec compose.ParamSpec, a, b compose.Value, p float32) compose.Value {
	switch a.Kind {
	case compose.ValueScalar:
		if spec.Angular {
			return compose.Scalar(lerpAngle(a.Vec[0], b.Vec[0], p))
		}
		return compose.Scalar(lerp(a.Vec[0], b.Vec[0], p))
	case compose.ValueVec2, compose.ValueVec3, compose.ValueVec4:
		out := a
		for i := 0; i < a.Components(); i++ {
			out.Vec[i] = lerp(a.Vec[i], b.Vec[i], p)
		}
		return out
	case compose.ValueColor:
		return compose.Color(colorspace.LerpLinear(a.Color, b.Color, p))
	default:
		// Bool/enum are handled by the stepped path; anything else
		// holds the left value.
		return a
	}
}

func lerp(a, b, p float32) float32 {
	return a + (b-a)*p
}

// lerpAngle interpolates degrees along the shortest arc, keeping the
// result in (-180, 180].
func lerpAngle(a, b, p float32) float32 {
	d := math32.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	out := math32.Mod(a+d*p, 360)
	if out > 180 {
		out -= 360
	} else if out <= -180 {
		out += 360
	}
	return out
}

// memoKey identifies one memoized sample. The track's edit counter is
// part of the key, so editing a track implicitly invalidates every
// memoized sample taken from it.
type memoKey struct {
	layer  uint64
	param  string
	timeMS int64
	edits  uint64
}

func hashMemoKey(k memoKey) uint64 {
	h := fnv.New64a()
	var buf [24]byte
	putUint64(buf[0:], k.layer)
	putUint64(buf[8:], uint64(k.timeMS))
	putUint64(buf[16:], k.edits)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(k.param))
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// memoQuantum is the sampling time granularity: samples within the
// same millisecond share a memo entry.
const memoQuantum = 1e-3

// Sampler memoizes track sampling per (layer id, parameter, quantized
// time). It is safe for concurrent use.
type Sampler struct {
	memo *cache.Sharded[memoKey, compose.Value]
}

// NewSampler creates a sampler with the given memo capacity per shard.
// capacity <= 0 selects the cache default.
func NewSampler(capacity int) *Sampler {
	return &Sampler{
		memo: cache.New[memoKey, compose.Value](capacity, hashMemoKey, nil),
	}
}

// Sample evaluates the layer parameter's track at time t, consulting
// the memo first.
func (s *Sampler) Sample(layerID uint64, spec compose.ParamSpec, track *compose.Track, t float64) compose.Value {
	key := memoKey{
		layer:  layerID,
		param:  spec.Name,
		timeMS: int64(math.Round(t / memoQuantum)),
		edits:  track.Edits(),
	}
	if v, ok := s.memo.Get(key); ok {
		return v
	}
	v := Sample(spec, track, t)
	s.memo.Set(key, v)
	return v
}

// Invalidate drops every memoized sample for the given layer parameter.
// Track edits already invalidate implicitly; this handles parameters
// whose track object is replaced wholesale.
func (s *Sampler) Invalidate(layerID uint64, param string) {
	s.memo.DeleteFunc(func(k memoKey) bool {
		return k.layer == layerID && k.param == param
	})
}

// InvalidateLayer drops every memoized sample for the layer.
func (s *Sampler) InvalidateLayer(layerID uint64) {
	s.memo.DeleteFunc(func(k memoKey) bool {
		return k.layer == layerID
	})
}

// Stats returns memo cache statistics.
func (s *Sampler) Stats() cache.Stats {
	return s.memo.Stats()
}
