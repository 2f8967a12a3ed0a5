package ledfx

import (
	"image"
	"math"
)

// NumLEDs is the number of LEDs on the ring.
const NumLEDs = 36

// NumPetals is the number of petals on the ring. Every petal is wired as six
// consecutive LEDs, starting at the inner circle and going out to the tip
// and back.
const NumPetals = 6

// MaxSelection is the largest number of indices a PixelProvider may return
// in one call. Petal roots overlap at the petal boundaries, so all six of
// them together are larger than the ring.
const MaxSelection = NumPetals * 7

// Frame is the colour of every LED on the ring.
type Frame [NumLEDs]Color

// Fill sets every LED in the frame to c.
func (f *Frame) Fill(c Color) {
	for i := range f {
		f[i] = c
	}
}

var (
	innerCircle = [...]int{0, 5, 6, 11, 12, 17, 18, 23, 24, 29, 30, 35}
	outerCircle = [...]int{1, 2, 4, 7, 8, 10, 13, 14, 16, 19, 20, 22, 25, 26, 28, 31, 32, 34}
)

// petalOrder is the order in which rotating petals light up.
var petalOrder = [NumPetals]int{1, 4, 0, 3, 5, 2}

// Position of each LED within its petal, in polar coordinates relative to
// the petal axis. The unit is roughly the LED pitch.
var petalShape = [6]struct {
	radius float64
	angle  float64 // degrees
}{
	{3, -14},
	{5, -11},
	{7, -7},
	{9, 0},
	{7, 7},
	{3, 14},
}

// Layout returns the 2-D coordinates of every LED, in LED index order, with
// the ring centered on (scale*10, scale*10). The coordinates only matter to
// simulators; effects address LEDs by index.
func Layout(scale int) []image.Point {
	pts := make([]image.Point, NumLEDs)
	center := float64(scale * 10)
	for petal := 0; petal < NumPetals; petal++ {
		axis := float64(petal) * 360 / NumPetals
		for k, p := range petalShape {
			rad := (axis + p.angle - 90) * math.Pi / 180
			pts[petal*6+k] = image.Point{
				X: int(math.Round(center + p.radius*float64(scale)*math.Cos(rad))),
				Y: int(math.Round(center + p.radius*float64(scale)*math.Sin(rad))),
			}
		}
	}
	return pts
}
