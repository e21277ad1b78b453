package compose

import "errors"

// Layer errors.
var (
	// ErrLayerCycle is returned when a group layer directly or
	// indirectly contains itself. The layer stack is a tree, not a
	// graph.
	ErrLayerCycle = errors.New("compose: layer group contains a cycle")
)

// LayerKind identifies the type of a layer. The renderer switches
// exhaustively on this enum, so adding a kind is a compile-time-checked
// change.
type LayerKind uint8

// Layer kind constants.
const (
	// LayerImage contributes pixels from a decoded source image.
	LayerImage LayerKind = iota

	// LayerAdjustment transforms the accumulated pixels beneath it and
	// contributes no pixels of its own.
	LayerAdjustment

	// LayerSolid contributes a flat RGBA fill.
	LayerSolid

	// LayerGroup precomposes an ordered list of child layers and then
	// behaves like a single layer.
	LayerGroup
)

// String returns a human-readable name for the layer kind.
func (k LayerKind) String() string {
	switch k {
	case LayerImage:
		return "Image"
	case LayerAdjustment:
		return "Adjustment"
	case LayerSolid:
		return "Solid"
	case LayerGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// AdjustmentKind is the typed key identifying an adjustment. Plugins
// are registered against these keys at startup (see package adjust);
// an unregistered kind causes the layer to be skipped, never a panic.
type AdjustmentKind string

// Built-in adjustment kinds.
const (
	AdjustBrightnessContrast AdjustmentKind = "brightness-contrast"
	AdjustHueSaturation      AdjustmentKind = "hue-saturation"
	AdjustGrayscale          AdjustmentKind = "grayscale"
	AdjustInvert             AdjustmentKind = "invert"
	AdjustGamma              AdjustmentKind = "gamma"
	AdjustSepia              AdjustmentKind = "sepia"
	AdjustVibrance           AdjustmentKind = "vibrance"
	AdjustTint               AdjustmentKind = "tint"
	AdjustBlur               AdjustmentKind = "blur"
)

// Orientation is an EXIF-style 8-way source orientation applied when an
// image layer's pixels are uploaded.
type Orientation uint8

// Orientation constants, matching EXIF orientation values 1-8.
const (
	OrientNormal Orientation = iota + 1
	OrientFlipH
	OrientRotate180
	OrientFlipV
	OrientTranspose
	OrientRotate90
	OrientTransverse
	OrientRotate270
)

// Swapped reports whether the orientation swaps width and height.
func (o Orientation) Swapped() bool {
	return o >= OrientTranspose && o <= OrientRotate270
}

// Rect is a placement rectangle in target pixels.
type Rect struct {
	X, Y, W, H float32
}

// IsZero reports whether the rectangle is unset.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// ImageSource is an already-decoded pixel buffer for an image layer.
// The compositor never decodes containers; hosts hand it RGBA pixels.
type ImageSource struct {
	// Pixels is non-premultiplied RGBA8, Width*Height*4 bytes.
	Pixels []byte

	// Width and Height are the source dimensions in pixels.
	Width, Height int

	// Signature identifies the source content for texture caching.
	// Two sources with equal signatures are assumed pixel-identical.
	Signature string
}

// Mask attaches a mask source to a layer's composite.
type Mask struct {
	// Source holds the mask coverage in the red channel.
	Source *ImageSource

	// Params control inversion, feathering, opacity and combining.
	Params MaskParams
}

// Layer is one entry in the layer stack. Kind selects which of the
// kind-specific field groups is meaningful.
type Layer struct {
	// ID identifies the layer across snapshots.
	ID uint64

	// Kind is the layer discriminant.
	Kind LayerKind

	// Visible controls whether the layer renders at all.
	Visible bool

	// Opacity is the layer opacity, 0-100.
	Opacity float32

	// Blend is the blend mode used to composite this layer.
	Blend BlendMode

	// Mask optionally modulates the composite.
	Mask *Mask

	// Source, Placement, Orientation and Tracks apply to image layers.
	Source      *ImageSource
	Placement   Rect
	Orientation Orientation
	Tracks      map[string]*Track

	// Adjustment and Params apply to adjustment layers.
	Adjustment AdjustmentKind
	Params     map[string]Value

	// Fill applies to solid layers.
	Fill ColorF32

	// Children applies to group layers, ordered top-to-bottom like the
	// document stack.
	Children []*Layer
}

// Renders reports whether the layer contributes to the frame at all.
func (l *Layer) Renders() bool {
	return l.Visible && l.Opacity > 0
}

// ValidateTree checks that the layer's group structure is a tree.
// Returns ErrLayerCycle when a group contains itself.
func (l *Layer) ValidateTree() error {
	return l.walk(make(map[*Layer]bool))
}

func (l *Layer) walk(onPath map[*Layer]bool) error {
	if onPath[l] {
		return ErrLayerCycle
	}
	if l.Kind != LayerGroup {
		return nil
	}
	onPath[l] = true
	for _, c := range l.Children {
		if err := c.walk(onPath); err != nil {
			return err
		}
	}
	delete(onPath, l)
	return nil
}
