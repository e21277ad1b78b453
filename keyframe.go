package compose

import (
	"errors"
	"sort"
)

// Track errors.
var (
	// ErrNoKeyframes is returned when constructing a track without a
	// seed keyframe. A track always holds at least one keyframe; the
	// seed takes the place of the parameter's former static default.
	ErrNoKeyframes = errors.New("compose: track requires a seed keyframe")
)

// InterpKind selects how the span after a keyframe is interpolated.
type InterpKind uint8

// Interpolation kind constants.
const (
	// InterpLinear interpolates toward the next keyframe.
	InterpLinear InterpKind = iota

	// InterpStepped holds the keyframe's value until the next keyframe.
	InterpStepped
)

// String returns a human-readable name for the interpolation kind.
func (k InterpKind) String() string {
	switch k {
	case InterpLinear:
		return "Linear"
	case InterpStepped:
		return "Stepped"
	default:
		return "Unknown"
	}
}

// EasingKind selects the easing curve applied to the progress fraction
// of the span starting at a keyframe. The curve functions live in the
// anim package; the tag lives here because keyframes carry it.
type EasingKind uint8

// Easing kind constants.
const (
	EaseLinear EasingKind = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseOutBack
	EaseOutElastic
	EaseOutBounce

	easingKindCount
)

// String returns a human-readable name for the easing kind.
func (k EasingKind) String() string {
	switch k {
	case EaseLinear:
		return "Linear"
	case EaseInQuad:
		return "InQuad"
	case EaseOutQuad:
		return "OutQuad"
	case EaseInOutQuad:
		return "InOutQuad"
	case EaseInCubic:
		return "InCubic"
	case EaseOutCubic:
		return "OutCubic"
	case EaseInOutCubic:
		return "InOutCubic"
	case EaseInSine:
		return "InSine"
	case EaseOutSine:
		return "OutSine"
	case EaseInOutSine:
		return "InOutSine"
	case EaseOutBack:
		return "OutBack"
	case EaseOutElastic:
		return "OutElastic"
	case EaseOutBounce:
		return "OutBounce"
	default:
		return "Unknown"
	}
}

// IsValid reports whether the kind is a defined easing curve.
func (k EasingKind) IsValid() bool {
	return k < easingKindCount
}

// Keyframe is one time-stamped value on a parameter track. The easing
// and interpolation kinds apply to the span between this keyframe and
// the next one.
type Keyframe struct {
	// Time is the keyframe position in seconds.
	Time float64

	// Value is the parameter value at Time.
	Value Value

	// Easing shapes the progress fraction across the following span.
	Easing EasingKind

	// Interp selects linear or stepped interpolation for the span.
	Interp InterpKind
}

// Track is an ordered set of keyframes for one parameter. Keyframe
// times are strictly increasing and a track always holds at least one
// keyframe.
//
// Track is not safe for concurrent mutation; renders work on document
// snapshots.
type Track struct {
	keys []Keyframe

	// edits counts mutations. Samplers use it to invalidate memoized
	// samples for this track.
	edits uint64
}

// NewTrack creates a track seeded with a single keyframe. Every track
// starts from a seed so that sampling is defined for all times.
func NewTrack(seed Keyframe) *Track {
	return &Track{keys: []Keyframe{seed}}
}

// NewConstantTrack creates a track holding v at time zero. This is the
// conventional way to represent a parameter's static default.
func NewConstantTrack(v Value) *Track {
	return NewTrack(Keyframe{Value: v})
}

// Len returns the number of keyframes.
func (t *Track) Len() int { return len(t.keys) }

// Edits returns the mutation counter, incremented by every Set/Remove.
func (t *Track) Edits() uint64 { return t.edits }

// Keys returns the keyframes in time order. The slice is shared; do
// not modify it.
func (t *Track) Keys() []Keyframe { return t.keys }

// First returns the earliest keyframe.
func (t *Track) First() Keyframe { return t.keys[0] }

// Last returns the latest keyframe.
func (t *Track) Last() Keyframe { return t.keys[len(t.keys)-1] }

// Set inserts a keyframe, replacing any existing keyframe at exactly
// the same time so times stay strictly increasing.
func (t *Track) Set(k Keyframe) {
	i := sort.Search(len(t.keys), func(i int) bool {
		return t.keys[i].Time >= k.Time
	})
	switch {
	case i < len(t.keys) && t.keys[i].Time == k.Time:
		t.keys[i] = k
	default:
		t.keys = append(t.keys, Keyframe{})
		copy(t.keys[i+1:], t.keys[i:])
		t.keys[i] = k
	}
	t.edits++
}

// Remove deletes the keyframe at the given time, if present. The last
// remaining keyframe cannot be removed; a track never becomes empty.
// Reports whether a keyframe was removed.
func (t *Track) Remove(time float64) bool {
	if len(t.keys) <= 1 {
		return false
	}
	i := sort.Search(len(t.keys), func(i int) bool {
		return t.keys[i].Time >= time
	})
	if i >= len(t.keys) || t.keys[i].Time != time {
		return false
	}
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	t.edits++
	return true
}

// Bracket returns the two keyframes surrounding time t: the latest
// keyframe at or before t and the earliest after it. Outside the
// track's range both returns are the boundary keyframe.
func (t *Track) Bracket(time float64) (left, right Keyframe) {
	keys := t.keys
	if time <= keys[0].Time {
		return keys[0], keys[0]
	}
	last := keys[len(keys)-1]
	if time >= last.Time {
		return last, last
	}
	// Binary search for the first keyframe strictly after time.
	i := sort.Search(len(keys), func(i int) bool {
		return keys[i].Time > time
	})
	return keys[i-1], keys[i]
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	keys := make([]Keyframe, len(t.keys))
	copy(keys, t.keys)
	return &Track{keys: keys, edits: t.edits}
}
