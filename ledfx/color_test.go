package ledfx

import "testing"

func TestMakeColorRoundTrip(t *testing.T) {
	for _, c := range []Color{Black, White, Red, Green, Blue, 0x123456, 0xFEDCBA, 0x00FF01} {
		r, g, b := c.RGB()
		assertEq(t, c, MakeColor(r, g, b))
	}

	for v := 0; v < 256; v++ {
		c := MakeColor(uint8(v), uint8(255-v), uint8(v/2))
		r, g, b := c.RGB()
		assertEq(t, c, MakeColor(r, g, b))
	}
}

func TestScaleColor(t *testing.T) {
	tests := []struct {
		name    string
		color   Color
		percent uint8
		want    Color
	}{
		{"identity", 0x80C0FF, 100, 0x80C0FF},
		{"over 100", 0x80C0FF, 250, 0x80C0FF},
		{"black", 0x80C0FF, 0, Black},
		{"half", 0xFF6400, 50, 0x7F3200},
		{"ten percent", White, 10, 0x191919},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertEq(t, test.want, ScaleColor(test.color, test.percent))
		})
	}
}

func TestScaleColorMonotonic(t *testing.T) {
	for _, c := range []Color{White, 0x123456, 0xFF0080} {
		pr, pg, pb := ScaleColor(c, 0).RGB()
		for pct := 1; pct <= 100; pct++ {
			r, g, b := ScaleColor(c, uint8(pct)).RGB()
			if r < pr || g < pg || b < pb {
				t.Fatalf("%v at %d%% is dimmer than at %d%%", c, pct, pct-1)
			}
			pr, pg, pb = r, g, b
		}
	}
}

func TestColorWheel(t *testing.T) {
	assertEq(t, MakeColor(0, 255, 0), ColorWheel(0))
	assertEq(t, MakeColor(255, 0, 0), ColorWheel(85))
	assertEq(t, MakeColor(0, 0, 255), ColorWheel(170))
	assertEq(t, MakeColor(0, 255, 0), ColorWheel(255))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8800")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, Color(0xFF8800), c)
	assertEq(t, "#ff8800", c.String())

	if _, err := ParseColor("orange"); err == nil {
		t.Error("expected error parsing a color name")
	}
}
