package chart

import "testing"

func TestRGB(t *testing.T) {
	cases := []struct {
		token   string
		r, g, b int
		ok      bool
	}{
		{"#ff618a", 255, 97, 138, true},
		{"#fff", 255, 255, 255, true},
		{"rgba(70, 140, 193, 1)", 70, 140, 193, true},
		{"rgb(300, -4, 12)", 255, 0, 12, true},
		{"#12", 0, 0, 0, false},
		{"white", 0, 0, 0, false},
	}
	for _, tc := range cases {
		r, g, b, ok := RGB(tc.token)
		if ok != tc.ok || r != tc.r || g != tc.g || b != tc.b {
			t.Fatalf("RGB(%q) = %d,%d,%d,%v", tc.token, r, g, b, ok)
		}
	}
}

func TestPaletteAtWraps(t *testing.T) {
	p := Palette{"a", "b"}
	if p.At(3) != "b" || p.At(-2) != "a" {
		t.Fatalf("unexpected wrap: %s %s", p.At(3), p.At(-2))
	}
	if (Palette{}).At(1) != fallbackColor {
		t.Fatalf("empty palette should fall back")
	}
}
