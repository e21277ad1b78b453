package adjust

import (
	"testing"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/shader"
)

func TestBuiltinsRegistered(t *testing.T) {
	kinds := []compose.AdjustmentKind{
		compose.AdjustBrightnessContrast,
		compose.AdjustHueSaturation,
		compose.AdjustGrayscale,
		compose.AdjustInvert,
		compose.AdjustGamma,
		compose.AdjustSepia,
		compose.AdjustVibrance,
		compose.AdjustTint,
		compose.AdjustBlur,
	}
	for _, k := range kinds {
		p := Lookup(k)
		if p == nil {
			t.Errorf("Lookup(%q) = nil", k)
			continue
		}
		if p.Kind() != k {
			t.Errorf("plugin for %q reports kind %q", k, p.Kind())
		}
		if len(p.Params()) == 0 {
			t.Errorf("plugin %q declares no parameters", k)
		}
	}
}

func TestLookupUnknownKind(t *testing.T) {
	if Lookup("no-such-kind") != nil {
		t.Error("unknown kind resolved to a plugin")
	}
}

func TestMapParamsUsesDefaults(t *testing.T) {
	p := Lookup(compose.AdjustBrightnessContrast)
	invs := p.MapParams(nil)
	if len(invs) != 1 {
		t.Fatalf("got %d invocations, want 1", len(invs))
	}
	inv := invs[0]
	if inv.Shader != shader.NameBrightnessContrast {
		t.Errorf("shader = %q", inv.Shader)
	}
	if got := inv.Uniforms["brightness"].Float32(); got != 0 {
		t.Errorf("default brightness = %v, want 0", got)
	}
}

func TestMapParamsForwardsValues(t *testing.T) {
	p := Lookup(compose.AdjustGamma)
	invs := p.MapParams(map[string]compose.Value{"gamma": compose.Scalar(2.2)})
	if got := invs[0].Uniforms["gamma"].Float32(); got != 2.2 {
		t.Errorf("gamma uniform = %v, want 2.2", got)
	}
}

func TestBlurEmitsSeparablePasses(t *testing.T) {
	p := Lookup(compose.AdjustBlur)
	invs := p.MapParams(map[string]compose.Value{"radius": compose.Scalar(8)})
	if len(invs) != 2 {
		t.Fatalf("got %d invocations, want 2", len(invs))
	}
	if invs[0].Pass != "h" || invs[1].Pass != "v" {
		t.Errorf("passes = %q, %q, want h then v", invs[0].Pass, invs[1].Pass)
	}
	for i, inv := range invs {
		if inv.Shader != shader.NameBlur {
			t.Errorf("invocation %d shader = %q", i, inv.Shader)
		}
		if got := inv.Uniforms["radius"].Float32(); got != 8 {
			t.Errorf("invocation %d radius = %v, want 8", i, got)
		}
	}
	if x := invs[0].Uniforms["direction"].Floats[0]; x != 1 {
		t.Errorf("h direction x = %v, want 1", x)
	}
	if y := invs[1].Uniforms["direction"].Floats[1]; y != 1 {
		t.Errorf("v direction y = %v, want 1", y)
	}
}

func TestRegisterOverridesBuiltin(t *testing.T) {
	orig := Lookup(compose.AdjustSepia)
	t.Cleanup(func() { Register(orig) })

	override := &amountPlugin{kind: compose.AdjustSepia, shaderName: "custom-sepia", def: 10}
	Register(override)
	if got := Lookup(compose.AdjustSepia); got != Plugin(override) {
		t.Error("override did not replace the built-in")
	}
}

func TestTintColorUniform(t *testing.T) {
	p := Lookup(compose.AdjustTint)
	invs := p.MapParams(map[string]compose.Value{
		"color":  compose.Color(compose.ColorF32{R: 1, G: 0.5, B: 0, A: 1}),
		"amount": compose.Scalar(80),
	})
	c := invs[0].Uniforms["color"].Floats
	if c[0] != 1 || c[1] != 0.5 || c[2] != 0 {
		t.Errorf("color uniform = %v", c[:4])
	}
}
