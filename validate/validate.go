// Package validate checks host-supplied resources before they reach
// the GPU: document and texture dimensions against device limits and a
// memory budget, and filter parameters against their declared domains.
// Parameter validation clamps and reports; it never rejects a render.
package validate

import (
	"fmt"
	"math"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/adjust"
	"github.com/gogpu/compose/gpu"
)

// DefaultMemoryBudget is the working-memory estimate used when the
// device cannot report its memory (256 MiB).
const DefaultMemoryBudget int64 = 256 << 20

// workingBuffers is how many document-sized RGBA8 buffers a frame
// needs at peak (accumulation ping-pong, layer scratch, pipeline
// scratch).
const workingBuffers = 4

// DimensionReport is the outcome of a dimension check. When the
// dimensions are rejected, SuggestedWidth/Height hold the largest
// acceptable size with the same aspect ratio.
type DimensionReport struct {
	// OK reports whether the dimensions are usable as-is.
	OK bool

	// Reasons lists why the dimensions were rejected. Empty when OK.
	Reasons []string

	// SuggestedWidth and SuggestedHeight are the recommended fallback
	// dimensions. Zero when OK.
	SuggestedWidth, SuggestedHeight int
}

// Dimensions checks a document or texture size against the device's
// maximum texture size and the memory the frame's working buffers
// would need.
func Dimensions(w, h int, caps gpu.Capabilities) DimensionReport {
	if w <= 0 || h <= 0 {
		return DimensionReport{
			Reasons: []string{fmt.Sprintf("dimensions %dx%d must be positive", w, h)},
		}
	}

	var reasons []string

	maxSize := caps.MaxTextureSize
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		reasons = append(reasons, fmt.Sprintf(
			"dimensions %dx%d exceed the device maximum texture size %d", w, h, maxSize))
	}

	budget := caps.MemoryBytes
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}
	need := int64(w) * int64(h) * 4 * workingBuffers
	if need > budget {
		reasons = append(reasons, fmt.Sprintf(
			"dimensions %dx%d need %d bytes of working memory, budget is %d", w, h, need, budget))
	}

	if len(reasons) == 0 {
		return DimensionReport{OK: true}
	}

	sw, sh := suggest(w, h, maxSize, budget)
	return DimensionReport{
		Reasons:         reasons,
		SuggestedWidth:  sw,
		SuggestedHeight: sh,
	}
}

// suggest scales (w, h) down uniformly until both the texture size
// limit and the memory budget hold, preserving the aspect ratio.
func suggest(w, h, maxSize int, budget int64) (int, int) {
	scale := 1.0
	if maxSize > 0 {
		if w > maxSize {
			scale = math.Min(scale, float64(maxSize)/float64(w))
		}
		if h > maxSize {
			scale = math.Min(scale, float64(maxSize)/float64(h))
		}
	}
	need := float64(w) * float64(h) * 4 * workingBuffers
	if need*scale*scale > float64(budget) {
		scale = math.Min(scale, math.Sqrt(float64(budget)/need))
	}

	sw := int(math.Floor(float64(w) * scale))
	sh := int(math.Floor(float64(h) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// FilterParams normalizes host-supplied parameters for an adjustment
// kind: values outside a parameter's domain are clamped, parameters
// the kind does not declare are dropped, and every correction is
// reported as a notice. Numeric inputs never fail validation.
//
// An unknown adjustment kind returns the input unchanged with a
// notice; the renderer will skip the layer anyway.
func FilterParams(kind compose.AdjustmentKind, params map[string]compose.Value) (map[string]compose.Value, []string) {
	plugin := adjust.Lookup(kind)
	if plugin == nil {
		return params, []string{fmt.Sprintf("unknown adjustment kind %q", kind)}
	}

	specs := plugin.Params()
	byName := make(map[string]compose.ParamSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	var notices []string
	out := make(map[string]compose.Value, len(params))
	for name, v := range params {
		spec, ok := byName[name]
		if !ok {
			notices = append(notices, fmt.Sprintf("%s: parameter %q is not declared, dropped", kind, name))
			continue
		}
		clamped := spec.ClampValue(v)
		if clamped != v {
			notices = append(notices, fmt.Sprintf("%s: %q clamped to %s", kind, name, spec.Domain))
		}
		out[name] = clamped
	}
	return out, notices
}

// HexColor parses a host-supplied hex color string into a color value.
// Accepts #rgb, #rrggbb and #rrggbbaa.
func HexColor(s string) (compose.Value, error) {
	c, err := compose.ParseHexColor(s)
	if err != nil {
		return compose.Value{}, err
	}
	return compose.Color(c), nil
}
