package ledfx

import (
	"fmt"
	"math/rand/v2"
)

// ColorProvider generates the colours for the pixels selected by a
// PixelProvider.
type ColorProvider interface {
	// AppendColors appends exactly n paints for time t (in milliseconds) to
	// dst and returns the extended slice. The ith paint is for the ith
	// selected pixel.
	AppendColors(dst []Paint, n int, t uint32) []Paint
}

func appendN(dst []Paint, n int, p Paint) []Paint {
	for i := 0; i < n; i++ {
		dst = append(dst, p)
	}
	return dst
}

// Fixed paints every pixel with the same colour.
type Fixed struct {
	Color Color
}

var _ ColorProvider = Fixed{}

// AppendColors implements ColorProvider.
func (f Fixed) AppendColors(dst []Paint, n int, t uint32) []Paint {
	return appendN(dst, n, Opaque(f.Color))
}

// Rainbow paints a rainbow across the pixels that moves one wheel step
// every 50ms.
type Rainbow struct{}

var _ ColorProvider = Rainbow{}

// AppendColors implements ColorProvider.
func (Rainbow) AppendColors(dst []Paint, n int, t uint32) []Paint {
	j := t / 50
	for i := 0; i < n; i++ {
		dst = append(dst, Opaque(ColorWheel(uint8(uint32(i)+j))))
	}
	return dst
}

const chaseStepMs = 140

// Chase paints a short trail that runs around the selected pixels, one step
// every 140ms. The trail fades from 10% brightness at its tail to 75% at its
// head. Pixels outside the trail are transparent.
type Chase struct {
	color     Color
	trail     int
	offset    uint32
	clockwise bool
}

var _ ColorProvider = Chase{}

// NewChase creates a Chase. The offset shifts the start of the trail by that
// many pixels. It panics if trail is not in [1, NumLEDs].
func NewChase(color Color, trail int, offset int, clockwise bool) Chase {
	if trail < 1 || trail > NumLEDs {
		panic(fmt.Sprintf("ledfx: chase trail length %d out of range", trail))
	}
	if offset < 0 {
		panic(fmt.Sprintf("ledfx: chase offset %d is negative", offset))
	}
	return Chase{
		color:     color,
		trail:     trail,
		offset:    uint32(offset),
		clockwise: clockwise,
	}
}

// trailBrightness returns the brightness percentage of the ith pixel of the
// trail, counting from the tail.
func (c Chase) trailBrightness(i int) uint8 {
	return uint8(10 + i*65/c.trail)
}

// AppendColors implements ColorProvider.
func (c Chase) AppendColors(dst []Paint, n int, t uint32) []Paint {
	start := len(dst)
	dst = appendN(dst, n, Transparent)
	if n == 0 {
		return dst
	}

	paints := dst[start:]
	head := int((uint64(t/chaseStepMs) + uint64(c.offset)) % uint64(n))

	if c.clockwise {
		for i := 0; i < c.trail; i++ {
			paints[(head+i)%n] = Opaque(ScaleColor(c.color, c.trailBrightness(i)))
		}
	} else {
		// Counter-clockwise walks backwards from the mirrored head.
		head = (n - head) % n
		for i := 0; i < c.trail; i++ {
			px := ((head-i)%n + n) % n
			paints[px] = Opaque(ScaleColor(c.color, c.trailBrightness(i)))
		}
	}

	return dst
}

// Glow breathes all pixels from a base colour up to a glow colour and back.
// The first and last quarters of every window hold the base colour; the
// middle half ramps linearly to the glow colour and back down.
type Glow struct {
	base    Color
	glow    Color
	window  uint32
	quarter uint32
}

var _ ColorProvider = Glow{}

// NewGlow creates a Glow with a period of windowMs milliseconds. It panics
// if the window is shorter than 4ms.
func NewGlow(base, glow Color, windowMs uint32) Glow {
	if windowMs < 4 {
		panic(fmt.Sprintf("ledfx: glow window %dms is too short", windowMs))
	}
	return Glow{
		base:    base,
		glow:    glow,
		window:  windowMs,
		quarter: windowMs / 4,
	}
}

// At returns the colour of the glow at time t.
func (g Glow) At(t uint32) Color {
	seq := t % g.window
	if seq < g.quarter || seq > g.window/2+g.quarter {
		return g.base
	}

	seq -= g.quarter

	// ramp is how far into the glow we are, out of a quarter.
	ramp := int(seq)
	if seq >= g.quarter {
		ramp = max(2*int(g.quarter)-int(seq), 0)
	}

	br, bg, bb := g.base.RGB()
	gr, gg, gb := g.glow.RGB()
	q := int(g.quarter)

	lerp := func(from, to uint8) uint8 {
		v := int(from) + (int(to)-int(from))*ramp/q
		return uint8(min(max(v, 0), 255))
	}

	return MakeColor(lerp(br, gr), lerp(bg, gg), lerp(bb, gb))
}

// AppendColors implements ColorProvider.
func (g Glow) AppendColors(dst []Paint, n int, t uint32) []Paint {
	return appendN(dst, n, Opaque(g.At(t)))
}

// sparkleSequence is the default order in which LEDs take turns sparkling.
// It spreads consecutive sparkles around the ring.
var sparkleSequence = [NumLEDs]int{
	28, 12, 21, 20, 19, 35, 23, 7, 10, 3, 17, 1,
	18, 13, 6, 33, 15, 32, 0, 26, 11, 16, 27, 24,
	34, 30, 9, 4, 14, 8, 5, 31, 25, 29, 22, 2,
}

// sparkleLED is one scheduled sparkle.
type sparkleLED struct {
	LED   int
	Start uint32
}

// SparkleOpts configures a Sparkle.
type SparkleOpts struct {
	// Color is the colour at the peak of a sparkle.
	Color Color
	// Count is the number of concurrent sparkles.
	Count int
	// Lifetime is how long a single sparkle lasts, in milliseconds.
	Lifetime uint32
	// Spread is the maximum random delay in milliseconds before a sparkle
	// starts.
	Spread uint32
	// Shuffle uses a random permutation of the LEDs instead of the built-in
	// sequence.
	Shuffle bool
	// Rand is the randomness source. If nil, a randomly seeded one is used.
	Rand *rand.Rand
}

// Sparkle fades individual pixels up to a colour and back down, cycling
// through the LEDs. Pixels that are not sparkling are transparent. A
// Sparkle is stateful and must only be used by one goroutine.
//
// Sparkle indexes the pixels it paints by LED number, so it should be paired
// with AllPixels.
type Sparkle struct {
	opts     SparkleOpts
	rand     *rand.Rand
	sequence [NumLEDs]int
	next     int
	leds     []sparkleLED
}

var _ ColorProvider = (*Sparkle)(nil)

// NewSparkle creates a Sparkle. It panics if Count is not positive or the
// lifetime is shorter than 2ms.
func NewSparkle(opts SparkleOpts) *Sparkle {
	if opts.Count <= 0 {
		panic(fmt.Sprintf("ledfx: sparkle count %d is not positive", opts.Count))
	}
	if opts.Lifetime < 2 {
		panic(fmt.Sprintf("ledfx: sparkle lifetime %dms is too short", opts.Lifetime))
	}

	s := &Sparkle{
		opts:     opts,
		rand:     opts.Rand,
		sequence: sparkleSequence,
		leds:     make([]sparkleLED, opts.Count),
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Shuffle {
		for i, led := range s.rand.Perm(NumLEDs) {
			s.sequence[i] = led
		}
	}

	for i := range s.leds {
		s.leds[i] = sparkleLED{LED: s.nextLED(), Start: s.jitter()}
	}

	return s
}

func (s *Sparkle) nextLED() int {
	led := s.sequence[s.next]
	s.next = (s.next + 1) % NumLEDs
	return led
}

func (s *Sparkle) jitter() uint32 {
	if s.opts.Spread == 0 {
		return 0
	}
	return s.rand.Uint32N(s.opts.Spread)
}

// brightness returns the brightness percentage of a sparkle that started
// elapsed milliseconds ago.
func (s *Sparkle) brightness(elapsed uint32) uint8 {
	half := s.opts.Lifetime / 2
	if elapsed < half {
		return uint8(elapsed * 100 / half)
	}
	down := (elapsed - half) * 100 / half
	if down > 100 {
		return 0
	}
	return uint8(100 - down)
}

// AppendColors implements ColorProvider.
func (s *Sparkle) AppendColors(dst []Paint, n int, t uint32) []Paint {
	start := len(dst)
	dst = appendN(dst, n, Transparent)
	paints := dst[start:]

	for i := range s.leds {
		led := &s.leds[i]
		if led.Start > t {
			continue
		}

		elapsed := t - led.Start
		if elapsed > s.opts.Lifetime {
			led.Start = t + s.jitter()
			led.LED = s.nextLED()
			continue
		}

		if led.LED < n {
			paints[led.LED] = Opaque(ScaleColor(s.opts.Color, s.brightness(elapsed)))
		}
	}

	return dst
}
