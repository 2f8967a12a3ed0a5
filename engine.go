package snowflake

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"dev.acmcsuf.com/snowflake/ledfx"
)

// Clock is the monotonic millisecond clock all animations run on.
type Clock interface {
	// Millis returns the milliseconds elapsed since the clock started. It
	// wraps around after about 49 days.
	Millis() uint32
	// Sleep blocks for d or until ctx is done, in which case it returns
	// the context's error.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock that starts now.
func NewSystemClock() Clock {
	return systemClock{start: time.Now()}
}

func (c systemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	// DefaultFrameRate is the default target frame rate in Hz.
	DefaultFrameRate = 30
	// DefaultBrightness is the default strip brightness in percent.
	DefaultBrightness = 20

	defaultStatsInterval = 10 * time.Second
)

// EngineOpts are options for an Engine.
type EngineOpts struct {
	// Strip receives every rendered frame.
	Strip Strip
	// Modes holds the effects of every mode. If nil, the built-in modes
	// with the default palette are used.
	Modes *ModeTable
	// FrameRate is the target frame rate in Hz.
	FrameRate int
	// Brightness is the initial strip brightness in percent. If nil,
	// DefaultBrightness is used.
	Brightness *uint8
	// Clock is the animation clock. If nil, the system clock is used.
	Clock Clock
	// StatsInterval is how often the frame rate is measured and logged.
	StatsInterval time.Duration
	// Logger is the logger to use for the engine.
	Logger *slog.Logger
}

// Stats describes the render loop performance.
type Stats struct {
	// FPS is the frame rate measured over the last stats interval.
	FPS uint32 `json:"fps"`
	// Frames is the total number of frames rendered.
	Frames uint64 `json:"frames"`
	// Overruns is the number of frames that took longer than their budget.
	Overruns uint64 `json:"overruns"`
}

// Engine renders the active mode onto the strip at a fixed frame rate. Only
// the goroutine running Run touches the frame buffer and the effects; the
// mode and brightness may be changed from any goroutine and are picked up at
// the start of the next frame.
type Engine struct {
	opts  EngineOpts
	frame ledfx.Frame

	mode       atomic.Uint32
	brightness atomic.Uint32
	shownBrite int

	fps      atomic.Uint32
	frames   atomic.Uint64
	overruns atomic.Uint64

	// stats window, render loop only
	windowStart  uint32
	windowFrames uint32
}

// NewEngine creates a new Engine showing DefaultMode.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Strip == nil {
		opts.Strip = NopStrip{}
	}
	if opts.Modes == nil {
		opts.Modes = NewModeTable(ModeTableOpts{Palette: DefaultPalette})
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = defaultStatsInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		opts:       opts,
		shownBrite: -1,
	}
	e.mode.Store(uint32(DefaultMode))
	e.brightness.Store(DefaultBrightness)
	if opts.Brightness != nil {
		e.SetBrightness(*opts.Brightness)
	}

	return e
}

// Mode returns the active mode.
func (e *Engine) Mode() Mode {
	return Mode(e.mode.Load())
}

// SetMode switches the active mode. Invalid modes are logged and ignored.
func (e *Engine) SetMode(m Mode) error {
	if !m.Valid() {
		e.opts.Logger.Warn(
			"ignoring invalid mode",
			"mode", uint32(m))

		return fmt.Errorf("%w: %d", ErrInvalidMode, uint32(m))
	}

	if old := Mode(e.mode.Swap(uint32(m))); old != m {
		e.opts.Logger.Info(
			"switched mode",
			"from", old,
			"to", m)
	}

	return nil
}

// Brightness returns the strip brightness in percent.
func (e *Engine) Brightness() uint8 {
	return uint8(e.brightness.Load())
}

// SetBrightness sets the strip brightness in percent. Values above 100 are
// clamped.
func (e *Engine) SetBrightness(percent uint8) {
	e.brightness.Store(uint32(min(percent, 100)))
}

// Stats returns the render loop statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		FPS:      e.fps.Load(),
		Frames:   e.frames.Load(),
		Overruns: e.overruns.Load(),
	}
}

// Frame returns a copy of the last rendered frame. It must only be called
// from the render loop goroutine, or when the engine is not running.
func (e *Engine) Frame() ledfx.Frame {
	return e.frame
}

// Render renders a single frame for time t and shows it on the strip.
func (e *Engine) Render(t uint32) {
	if b := int(e.brightness.Load()); b != e.shownBrite {
		e.opts.Strip.SetBrightness(uint8(b))
		e.shownBrite = b
	}

	e.frame.Fill(ledfx.Black)
	for _, effect := range e.opts.Modes[e.Mode()] {
		effect.Apply(&e.frame, t)
	}

	for i, c := range e.frame {
		e.opts.Strip.SetPixelColor(i, c)
	}

	if err := e.opts.Strip.Show(); err != nil {
		e.opts.Logger.Error(
			"error writing LED strip",
			"error", err)
	}

	e.frames.Add(1)
}

// Run runs the render loop until ctx is done. It only returns an error if
// the strip fails to initialize.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.opts.Strip.Begin(); err != nil {
		return fmt.Errorf("failed to initialize LED strip: %w", err)
	}

	clock := e.opts.Clock
	rate := uint64(e.opts.FrameRate)

	// Frame deadlines are computed from base rather than accumulated so
	// that rounding the period to milliseconds does not drift.
	base := clock.Millis()
	e.windowStart = base
	e.windowFrames = 0

	for n := uint64(1); ; n++ {
		if ctx.Err() != nil {
			return nil
		}

		now := clock.Millis()
		e.Render(now)
		e.countFrame(now)

		deadline := base + uint32(n*1000/rate)
		remaining := int32(deadline - clock.Millis())

		if remaining < 0 {
			e.overruns.Add(1)
			e.opts.Logger.Debug(
				"frame overran its budget",
				"by_ms", -remaining)

			base = clock.Millis()
			n = 0
			continue
		}

		if remaining > 0 {
			if err := clock.Sleep(ctx, time.Duration(remaining)*time.Millisecond); err != nil {
				return nil
			}
		}
	}
}

func (e *Engine) countFrame(now uint32) {
	e.windowFrames++

	elapsed := now - e.windowStart
	if time.Duration(elapsed)*time.Millisecond < e.opts.StatsInterval {
		return
	}

	fps := uint32(uint64(e.windowFrames) * 1000 / uint64(elapsed))
	e.fps.Store(fps)

	e.opts.Logger.Info(
		"frames per second",
		"fps", fps,
		"mode", e.Mode(),
		"overruns", e.overruns.Load())

	e.windowStart = now
	e.windowFrames = 0
}
