package compose

import (
	"errors"
	"testing"
)

func TestLayerRenders(t *testing.T) {
	tests := []struct {
		name    string
		visible bool
		opacity float32
		want    bool
	}{
		{"visible opaque", true, 100, true},
		{"visible faint", true, 0.5, true},
		{"visible zero opacity", true, 0, false},
		{"hidden", false, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Layer{Visible: tt.visible, Opacity: tt.opacity}
			if got := l.Renders(); got != tt.want {
				t.Errorf("Renders = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateTreeAcceptsNestedGroups(t *testing.T) {
	leaf := &Layer{ID: 1, Kind: LayerSolid}
	inner := &Layer{ID: 2, Kind: LayerGroup, Children: []*Layer{leaf}}
	outer := &Layer{ID: 3, Kind: LayerGroup, Children: []*Layer{inner}}
	if err := outer.ValidateTree(); err != nil {
		t.Fatalf("ValidateTree: %v", err)
	}
}

func TestValidateTreeRejectsSelfReference(t *testing.T) {
	g := &Layer{ID: 1, Kind: LayerGroup}
	g.Children = []*Layer{g}
	if err := g.ValidateTree(); !errors.Is(err, ErrLayerCycle) {
		t.Fatalf("err = %v, want ErrLayerCycle", err)
	}
}

func TestValidateTreeRejectsIndirectCycle(t *testing.T) {
	a := &Layer{ID: 1, Kind: LayerGroup}
	b := &Layer{ID: 2, Kind: LayerGroup}
	a.Children = []*Layer{b}
	b.Children = []*Layer{a}
	if err := a.ValidateTree(); !errors.Is(err, ErrLayerCycle) {
		t.Fatalf("err = %v, want ErrLayerCycle", err)
	}
}

func TestValidateTreeAllowsSharedLeaves(t *testing.T) {
	// The same non-group layer under two groups is aliasing, not a
	// cycle.
	leaf := &Layer{ID: 1, Kind: LayerSolid}
	a := &Layer{ID: 2, Kind: LayerGroup, Children: []*Layer{leaf}}
	b := &Layer{ID: 3, Kind: LayerGroup, Children: []*Layer{leaf}}
	doc := &Document{Layers: []*Layer{a, b}}
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestOrientationSwapped(t *testing.T) {
	swapped := []Orientation{OrientTranspose, OrientRotate90, OrientTransverse, OrientRotate270}
	straight := []Orientation{OrientNormal, OrientFlipH, OrientRotate180, OrientFlipV}
	for _, o := range swapped {
		if !o.Swapped() {
			t.Errorf("%d.Swapped() = false", o)
		}
	}
	for _, o := range straight {
		if o.Swapped() {
			t.Errorf("%d.Swapped() = true", o)
		}
	}
}

func TestDomainClamp(t *testing.T) {
	d := Domain{Min: -10, Max: 10}
	if got := d.Clamp(-20); got != -10 {
		t.Errorf("Clamp(-20) = %v", got)
	}
	if got := d.Clamp(20); got != 10 {
		t.Errorf("Clamp(20) = %v", got)
	}
	if got := d.Clamp(5); got != 5 {
		t.Errorf("Clamp(5) = %v", got)
	}
}

func TestParamSpecClampValue(t *testing.T) {
	spec := ParamSpec{Kind: ValueScalar, Domain: Domain{Min: 0, Max: 100}}
	if got := spec.ClampValue(Scalar(150)).Float(); got != 100 {
		t.Errorf("scalar clamp = %v", got)
	}

	vec := ParamSpec{Kind: ValueVec2, Domain: Domain{Min: -1, Max: 1}}
	got := vec.ClampValue(Vec2(-5, 0.5))
	if got.Vec[0] != -1 || got.Vec[1] != 0.5 {
		t.Errorf("vector clamp = %v", got.Vec[:2])
	}

	colorSpec := ParamSpec{Kind: ValueColor}
	c := colorSpec.ClampValue(Color(ColorF32{R: 2, G: -1, B: 0.5, A: 1}))
	if c.Color.R != 1 || c.Color.G != 0 {
		t.Errorf("color clamp = %v", c.Color)
	}

	boolSpec := ParamSpec{Kind: ValueBool}
	if got := boolSpec.ClampValue(Bool(true)); !got.Bool {
		t.Error("bool clamp changed the value")
	}
}
