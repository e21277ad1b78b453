package compose

import (
	"errors"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want ColorF32
	}{
		{"#fff", ColorF32{1, 1, 1, 1}},
		{"#000", ColorF32{0, 0, 0, 1}},
		{"#ff0000", ColorF32{1, 0, 0, 1}},
		{"00ff00", ColorF32{0, 1, 0, 1}},
		{"#0000ff80", ColorF32{0, 0, 1, float32(0x80) / 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if err != nil {
				t.Fatalf("ParseHexColor(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHexColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#", "#ff", "#ggg", "#12345", "not-a-color"} {
		if _, err := ParseHexColor(in); !errors.Is(err, ErrInvalidHexColor) {
			t.Errorf("ParseHexColor(%q) err = %v, want ErrInvalidHexColor", in, err)
		}
	}
}

func TestColorString(t *testing.T) {
	c := ColorF32{R: 1, G: 0, B: 0, A: 1}
	if got := c.String(); got != "#ff0000ff" {
		t.Errorf("String = %q, want #ff0000ff", got)
	}
}

func TestClamped(t *testing.T) {
	c := ColorF32{R: 1.5, G: -0.2, B: 0.5, A: 2}
	want := ColorF32{R: 1, G: 0, B: 0.5, A: 1}
	if got := c.Clamped(); got != want {
		t.Errorf("Clamped = %v, want %v", got, want)
	}
}
