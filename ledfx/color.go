// Package ledfx implements the animation primitives of the snowflake LED
// ring: colour math, pixel selection, colour generation, frame
// post-processing and the effects that bind them onto a frame buffer.
package ledfx

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 24-bit RGB colour laid out as 0xRRGGBB.
type Color uint32

// Common colours.
const (
	Black Color = 0x000000
	White Color = 0xFFFFFF
	Red   Color = 0xFF0000
	Green Color = 0x00FF00
	Blue  Color = 0x0000FF
)

// MakeColor packs the given channels into a Color.
func MakeColor(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// MakeColorScaled packs the given channels into a Color after scaling each
// of them by percent. See ScaleColor.
func MakeColorScaled(r, g, b, percent uint8) Color {
	return MakeColor(scaleChannel(r, percent), scaleChannel(g, percent), scaleChannel(b, percent))
}

// RGB unpacks the colour into its channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// String formats the colour as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c&0xFFFFFF))
}

// ScaleColor scales every channel of the colour by percent. Percentages
// above 100 are treated as 100, so ScaleColor(c, 100) is always c.
func ScaleColor(c Color, percent uint8) Color {
	r, g, b := c.RGB()
	return MakeColorScaled(r, g, b, percent)
}

func scaleChannel(v, percent uint8) uint8 {
	if percent >= 100 {
		return v
	}
	return uint8(uint16(v) * uint16(percent) / 100)
}

// ColorWheel maps a position in [0, 255] onto a colour wheel that
// transitions red to green, green to blue and blue back to red.
func ColorWheel(pos uint8) Color {
	switch {
	case pos < 85:
		return MakeColor(pos*3, 255-pos*3, 0)
	case pos < 170:
		pos -= 85
		return MakeColor(255-pos*3, 0, pos*3)
	default:
		pos -= 170
		return MakeColor(0, pos*3, 255-pos*3)
	}
}

// ParseColor parses a hex colour such as "#ff8800".
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return MakeColor(c.RGB255()), nil
}

// Paint is the result of a colour provider for a single pixel. A
// transparent Paint leaves whatever an earlier layer wrote at that pixel.
// The zero value is transparent.
type Paint struct {
	Color  Color
	Opaque bool
}

// Transparent is the Paint that does not modify the frame.
var Transparent = Paint{}

// Opaque returns a Paint that overwrites the pixel with c.
func Opaque(c Color) Paint {
	return Paint{Color: c, Opaque: true}
}
