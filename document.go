package compose

// InteractionState carries per-frame interaction context into the
// renderer. It lives on the document snapshot rather than in package
// state so that concurrent renders of different snapshots stay
// independent.
type InteractionState struct {
	// Dragging reports that an interactive edit is in progress; the
	// scheduler uses it to favor throttled over debounced sampling.
	Dragging bool

	// SelectedLayer is the layer the interactive overrides apply to.
	SelectedLayer uint64

	// Overrides are parameter values that take precedence over the
	// selected layer's sampled track values for this frame.
	Overrides map[string]Value
}

// Document is a snapshot of the full layer state rendered into one
// frame. Snapshots are treated as immutable once handed to the
// scheduler.
type Document struct {
	// Layers is the main stack in declared (top-to-bottom) order. The
	// renderer composites bottom-to-top.
	Layers []*Layer

	// GlobalLayers are adjustment/solid layers applied after the main
	// stack is flattened, in declared top-to-bottom order.
	GlobalLayers []*Layer

	// Width and Height are the target surface dimensions in pixels.
	Width, Height int

	// Time is the playhead position in seconds.
	Time float64

	// Interaction is the frame's interaction context.
	Interaction InteractionState
}

// Validate checks structural invariants: every group subtree must be a
// tree (no cycles) and document-global layers must not be groups or
// images.
func (d *Document) Validate() error {
	for _, l := range d.Layers {
		if err := l.ValidateTree(); err != nil {
			return err
		}
	}
	for _, l := range d.GlobalLayers {
		if err := l.ValidateTree(); err != nil {
			return err
		}
	}
	return nil
}
