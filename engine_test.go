package snowflake

import (
	"context"
	"errors"
	"testing"
	"time"

	"dev.acmcsuf.com/snowflake/ledfx"
	"github.com/neilotoole/slogt"
)

type fakeClock struct {
	now     uint32
	onSleep func(now uint32)
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) Millis() uint32 { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now += uint32(d.Milliseconds())
	if c.onSleep != nil {
		c.onSleep(c.now)
	}
	return ctx.Err()
}

type recordingStrip struct {
	begun      int
	beginErr   error
	brightness []uint8
	pixels     ledfx.Frame
	shows      int
	onShow     func()
}

func (s *recordingStrip) Begin() error {
	s.begun++
	return s.beginErr
}

func (s *recordingStrip) SetBrightness(percent uint8) {
	s.brightness = append(s.brightness, percent)
}

func (s *recordingStrip) SetPixelColor(i int, c ledfx.Color) {
	s.pixels[i] = c
}

func (s *recordingStrip) Show() error {
	s.shows++
	if s.onShow != nil {
		s.onShow()
	}
	return nil
}

func TestEngineRender(t *testing.T) {
	strip := &recordingStrip{}
	engine := NewEngine(EngineOpts{
		Strip:  strip,
		Clock:  newFakeClock(),
		Logger: slogt.New(t),
	})

	assertEq(t, DefaultMode, engine.Mode())

	engine.Render(0)
	assertEq(t, 1, strip.shows)
	assertEq(t, []uint8{DefaultBrightness}, strip.brightness)
	assertEq(t, engine.Frame(), strip.pixels)

	var sparkling int
	for _, c := range strip.pixels {
		if c != ledfx.White {
			sparkling++
		}
	}
	if sparkling > 14 {
		t.Errorf("expected at most 14 sparkling LEDs, got %d", sparkling)
	}

	if err := engine.SetMode(ModeOff); err != nil {
		t.Fatal("failed to set mode:", err)
	}
	engine.Render(33)

	var off ledfx.Frame
	assertEq(t, off, strip.pixels)
	// Brightness is only pushed to the strip when it changes.
	assertEq(t, []uint8{DefaultBrightness}, strip.brightness)

	engine.SetBrightness(150)
	engine.Render(66)
	assertEq(t, uint8(100), engine.Brightness())
	assertEq(t, []uint8{DefaultBrightness, 100}, strip.brightness)
	assertEq(t, uint64(3), engine.Stats().Frames)
}

func TestEngineSetInvalidMode(t *testing.T) {
	engine := NewEngine(EngineOpts{Logger: slogt.New(t)})

	if err := engine.SetMode(ModeRainbow); err != nil {
		t.Fatal("failed to set mode:", err)
	}

	err := engine.SetMode(ModeMax)
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	assertEq(t, ModeRainbow, engine.Mode())
}

func TestEngineInitialBrightness(t *testing.T) {
	brightness := func(b uint8) *uint8 { return &b }

	tests := []struct {
		name       string
		brightness *uint8
		want       uint8
	}{
		{"default", nil, DefaultBrightness},
		{"zero", brightness(0), 0},
		{"half", brightness(50), 50},
		{"clamped", brightness(200), 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			strip := &recordingStrip{}
			engine := NewEngine(EngineOpts{
				Strip:      strip,
				Brightness: test.brightness,
				Clock:      newFakeClock(),
				Logger:     slogt.New(t),
			})

			engine.Render(0)
			assertEq(t, test.want, engine.Brightness())
			assertEq(t, []uint8{test.want}, strip.brightness)
		})
	}
}

func TestEngineRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := newFakeClock()
	clock.onSleep = func(now uint32) {
		if now >= 10_500 {
			cancel()
		}
	}

	strip := &recordingStrip{}
	engine := NewEngine(EngineOpts{
		Strip:  strip,
		Clock:  clock,
		Logger: slogt.New(t),
	})

	if err := engine.Run(ctx); err != nil {
		t.Fatal("unexpected run error:", err)
	}

	stats := engine.Stats()
	assertEq(t, 1, strip.begun)
	assertEq(t, uint32(30), stats.FPS)
	assertEq(t, uint64(0), stats.Overruns)
	assertEq(t, uint64(strip.shows), stats.Frames)

	// Frames at floor(k*1000/30) for every k with a time before 10500.
	assertEq(t, 315, strip.shows)
}

func TestEngineRunOverrun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := newFakeClock()

	strip := &recordingStrip{}
	strip.onShow = func() {
		// Every frame takes longer than its 33ms budget.
		clock.now += 50
		if clock.now >= 1000 {
			cancel()
		}
	}

	engine := NewEngine(EngineOpts{
		Strip:  strip,
		Clock:  clock,
		Logger: slogt.New(t),
	})

	if err := engine.Run(ctx); err != nil {
		t.Fatal("unexpected run error:", err)
	}

	assertEq(t, 20, strip.shows)
	assertEq(t, uint64(20), engine.Stats().Overruns)
}

func TestEngineRunBeginError(t *testing.T) {
	strip := &recordingStrip{beginErr: errors.New("no DMA channel")}
	engine := NewEngine(EngineOpts{
		Strip:  strip,
		Clock:  newFakeClock(),
		Logger: slogt.New(t),
	})

	err := engine.Run(context.Background())
	if err == nil || !errors.Is(err, strip.beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
	assertEq(t, 0, strip.shows)
}
