package snowflake

import (
	"math/rand/v2"

	"dev.acmcsuf.com/snowflake/ledfx"
)

// Palette holds the configurable colours of the built-in modes.
type Palette struct {
	// Snow is the main colour of the snowflake.
	Snow ledfx.Color
	// Accent is the secondary, festive colour.
	Accent ledfx.Color
}

// DefaultPalette is white snow with a red accent.
var DefaultPalette = Palette{
	Snow:   ledfx.White,
	Accent: 0xC00000,
}

const (
	hanukkahBlue ledfx.Color = 0x0038B8
	hollyGreen   ledfx.Color = 0x003000
)

// ModeBuilder assembles the ordered effect list of a mode.
type ModeBuilder struct {
	effects []ledfx.Effect
	special ledfx.Effect
}

// NewModeBuilder creates an empty ModeBuilder.
func NewModeBuilder() *ModeBuilder {
	return &ModeBuilder{}
}

// Layer adds an effect painting the given pixels with the given colours on
// top of the previous layers.
func (b *ModeBuilder) Layer(pixels ledfx.PixelProvider, colors ledfx.ColorProvider) *ModeBuilder {
	b.effects = append(b.effects, ledfx.NewPixelAndColorEffect(pixels, colors))
	return b
}

// Special sets the special effect that post-processes the frame after all
// layers. A mode has at most one; setting another replaces it.
func (b *ModeBuilder) Special(provider ledfx.SpecialEffectProvider) *ModeBuilder {
	b.special = ledfx.NewSpecialEffect(provider)
	return b
}

// Build returns the effect list.
func (b *ModeBuilder) Build() []ledfx.Effect {
	effects := append([]ledfx.Effect(nil), b.effects...)
	if b.special != nil {
		effects = append(effects, b.special)
	}
	return effects
}

// ModeTable holds the effect list of every mode.
type ModeTable [ModeMax][]ledfx.Effect

// ModeTableOpts configures NewModeTable.
type ModeTableOpts struct {
	Palette Palette
	// Rand seeds the sparkle effects. If nil, they are randomly seeded.
	Rand *rand.Rand
}

// NewModeTable builds the effect lists of all built-in modes. Every mode
// gets its own provider instances.
func NewModeTable(opts ModeTableOpts) *ModeTable {
	p := opts.Palette

	sparkle := func(o ledfx.SparkleOpts) *ledfx.Sparkle {
		o.Rand = opts.Rand
		return ledfx.NewSparkle(o)
	}

	var t ModeTable

	t[ModeOff] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: ledfx.Black}).
		Build()

	t[ModeSnowflake] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: p.Snow}).
		Layer(ledfx.AllPixels{}, sparkle(ledfx.SparkleOpts{
			Color:    p.Snow,
			Count:    14,
			Lifetime: 1800,
			Spread:   10_000,
		})).
		Build()

	t[ModeHanukkah] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: hanukkahBlue}).
		Layer(ledfx.InnerCircle{}, ledfx.NewGlow(hanukkahBlue, p.Snow, 6000)).
		Layer(ledfx.NewPetal(ledfx.PetalJustTip, ledfx.PetalRotate, 1500), ledfx.Fixed{Color: p.Snow}).
		Build()

	t[ModeRainbow] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Rainbow{}).
		Special(ledfx.NewBlur()).
		Build()

	t[ModeChaseHoliday] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: hollyGreen}).
		Layer(ledfx.OuterCircle{}, ledfx.NewChase(p.Accent, 6, 0, true)).
		Layer(ledfx.OuterCircle{}, ledfx.NewChase(p.Accent, 6, 9, true)).
		Layer(ledfx.InnerCircle{}, ledfx.NewChase(p.Snow, 4, 0, false)).
		Build()

	t[ModeCirclesRotate] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: ledfx.Black}).
		Layer(ledfx.NewEveryN(3, 0), ledfx.Fixed{Color: p.Accent}).
		Layer(ledfx.NewEveryN(3, 1), ledfx.Fixed{Color: p.Snow}).
		Layer(ledfx.NewPetal(ledfx.PetalJustTip, ledfx.PetalRotate, 2500), ledfx.NewGlow(p.Accent, p.Snow, 2500)).
		Special(ledfx.NewBlur()).
		Build()

	t[ModeSparkle] = NewModeBuilder().
		Layer(ledfx.AllPixels{}, ledfx.Fixed{Color: ledfx.Black}).
		Layer(ledfx.AllPixels{}, sparkle(ledfx.SparkleOpts{
			Color:    p.Snow,
			Count:    14,
			Lifetime: 1800,
			Spread:   4000,
			Shuffle:  true,
		})).
		Layer(ledfx.AllPixels{}, sparkle(ledfx.SparkleOpts{
			Color:    p.Accent,
			Count:    6,
			Lifetime: 2400,
			Spread:   6000,
			Shuffle:  true,
		})).
		Build()

	return &t
}
