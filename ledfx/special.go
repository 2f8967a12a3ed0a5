package ledfx

// SpecialEffectProvider post-processes a whole frame.
type SpecialEffectProvider interface {
	// ModifyColors rewrites the frame in place for time t (in
	// milliseconds).
	ModifyColors(frame *Frame, t uint32)
}

// Blur smooths every pixel over time by averaging each channel of the new
// frame with the previous output. Despite its name it does not blur
// neighbouring pixels together. A Blur is stateful and must only be used by
// one goroutine.
type Blur struct {
	last Frame
}

var _ SpecialEffectProvider = (*Blur)(nil)

// NewBlur creates a Blur whose history starts out black.
func NewBlur() *Blur {
	return &Blur{}
}

// ModifyColors implements SpecialEffectProvider.
func (b *Blur) ModifyColors(frame *Frame, t uint32) {
	for i, in := range frame {
		ir, ig, ib := in.RGB()
		lr, lg, lb := b.last[i].RGB()
		b.last[i] = MakeColor(
			uint8((uint16(ir)+uint16(lr))/2),
			uint8((uint16(ig)+uint16(lg))/2),
			uint8((uint16(ib)+uint16(lb))/2),
		)
	}
	*frame = b.last
}
