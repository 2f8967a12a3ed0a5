package ledfx

// Effect draws one layer onto a frame.
type Effect interface {
	// Apply draws the effect for time t (in milliseconds) onto the frame.
	Apply(frame *Frame, t uint32)
}

// PixelAndColorEffect paints the pixels chosen by a PixelProvider with the
// colours generated by a ColorProvider. Transparent paints leave the frame
// untouched, so earlier effects show through.
type PixelAndColorEffect struct {
	pixels PixelProvider
	colors ColorProvider

	// scratch space reused on every Apply
	pixelBuf []int
	paintBuf []Paint
}

var _ Effect = (*PixelAndColorEffect)(nil)

// NewPixelAndColorEffect binds a PixelProvider to a ColorProvider.
func NewPixelAndColorEffect(pixels PixelProvider, colors ColorProvider) *PixelAndColorEffect {
	if pixels == nil || colors == nil {
		panic("ledfx: effect needs both a pixel and a color provider")
	}
	return &PixelAndColorEffect{
		pixels:   pixels,
		colors:   colors,
		pixelBuf: make([]int, 0, MaxSelection),
		paintBuf: make([]Paint, 0, MaxSelection),
	}
}

// Apply implements Effect.
func (e *PixelAndColorEffect) Apply(frame *Frame, t uint32) {
	e.pixelBuf = e.pixels.AppendPixels(e.pixelBuf[:0], t)
	e.paintBuf = e.colors.AppendColors(e.paintBuf[:0], len(e.pixelBuf), t)

	n := min(len(e.pixelBuf), len(e.paintBuf))
	for i := 0; i < n; i++ {
		px := e.pixelBuf[i]
		paint := e.paintBuf[i]
		if !paint.Opaque || px < 0 || px >= NumLEDs {
			continue
		}
		frame[px] = paint.Color
	}
}

// SpecialEffect runs a SpecialEffectProvider over the whole frame.
type SpecialEffect struct {
	provider SpecialEffectProvider
}

var _ Effect = SpecialEffect{}

// NewSpecialEffect wraps a SpecialEffectProvider.
func NewSpecialEffect(provider SpecialEffectProvider) SpecialEffect {
	if provider == nil {
		panic("ledfx: nil special effect provider")
	}
	return SpecialEffect{provider: provider}
}

// Apply implements Effect.
func (e SpecialEffect) Apply(frame *Frame, t uint32) {
	e.provider.ModifyColors(frame, t)
}
