package snowflake

import (
	"errors"
	"sync"

	"dev.acmcsuf.com/snowflake/ledfx"
)

// Strip is the LED strip driver that frames are pushed to. All methods are
// called from the render loop only.
type Strip interface {
	// Begin initializes the strip. It is called once before the first frame.
	Begin() error
	// SetBrightness sets the global brightness in percent.
	SetBrightness(percent uint8)
	// SetPixelColor sets the colour of one LED for the next Show.
	SetPixelColor(i int, c ledfx.Color)
	// Show flushes the pixels set since the last Show to the LEDs.
	Show() error
}

// NopStrip is a Strip that discards everything.
type NopStrip struct{}

var _ Strip = NopStrip{}

func (NopStrip) Begin() error { return nil }
func (NopStrip) SetBrightness(uint8) {}
func (NopStrip) SetPixelColor(int, ledfx.Color) {}
func (NopStrip) Show() error { return nil }

type multiStrip []Strip

// MultiStrip returns a Strip that duplicates every call to all the given
// strips, in order.
func MultiStrip(strips ...Strip) Strip {
	return multiStrip(append([]Strip(nil), strips...))
}

func (m multiStrip) Begin() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Begin())
	}
	return errors.Join(errs...)
}

func (m multiStrip) SetBrightness(percent uint8) {
	for _, s := range m {
		s.SetBrightness(percent)
	}
}

func (m multiStrip) SetPixelColor(i int, c ledfx.Color) {
	for _, s := range m {
		s.SetPixelColor(i, c)
	}
}

func (m multiStrip) Show() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Show())
	}
	return errors.Join(errs...)
}

// Broadcaster is a Strip that hands every shown frame to its subscribers.
// Subscribers only ever see the latest frame; frames shown while a
// subscriber is busy are dropped for it.
type Broadcaster struct {
	pending ledfx.Frame

	subsMu sync.Mutex
	subs   map[*FrameSubscription]struct{}
}

var _ Strip = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*FrameSubscription]struct{}),
	}
}

// Subscribe registers a new subscriber. It must be closed when no longer
// needed.
func (b *Broadcaster) Subscribe() *FrameSubscription {
	sub := &FrameSubscription{
		ready: make(chan struct{}, 1),
		b:     b,
	}

	b.subsMu.Lock()
	b.subs[sub] = struct{}{}
	b.subsMu.Unlock()

	return sub
}

func (b *Broadcaster) Begin() error { return nil }
func (b *Broadcaster) SetBrightness(uint8) {}

func (b *Broadcaster) SetPixelColor(i int, c ledfx.Color) {
	if i >= 0 && i < ledfx.NumLEDs {
		b.pending[i] = c
	}
}

func (b *Broadcaster) Show() error {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	for sub := range b.subs {
		sub.publish(&b.pending)
	}
	return nil
}

// FrameSubscription receives frames from a Broadcaster.
type FrameSubscription struct {
	ready chan struct{}
	b     *Broadcaster

	mu    sync.Mutex
	frame ledfx.Frame
}

func (s *FrameSubscription) publish(frame *ledfx.Frame) {
	s.mu.Lock()
	s.frame = *frame
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives a value when a new frame is
// available.
func (s *FrameSubscription) Ready() <-chan struct{} {
	return s.ready
}

// Frame returns the latest frame.
func (s *FrameSubscription) Frame() ledfx.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frame
}

// Close unsubscribes from the Broadcaster.
func (s *FrameSubscription) Close() {
	s.b.subsMu.Lock()
	delete(s.b.subs, s)
	s.b.subsMu.Unlock()
}
