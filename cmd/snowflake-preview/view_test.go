package main

import (
	"context"
	"errors"
	"testing"

	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"
)

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

type fakeRing struct {
	mode snowflake.Mode
	err  error
}

func (r *fakeRing) Run(ctx context.Context, frames chan<- ledfx.Frame) error {
	<-ctx.Done()
	return nil
}

func (r *fakeRing) Mode() snowflake.Mode { return r.mode }

func (r *fakeRing) SetMode(m snowflake.Mode) error {
	if r.err != nil {
		return r.err
	}
	r.mode = m
	return nil
}

func (r *fakeRing) NextMode() (snowflake.Mode, error) {
	if r.err != nil {
		return r.mode, r.err
	}
	r.mode = r.mode.Next()
	return r.mode, nil
}

func newTestView(t *testing.T) *ringView {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal("failed to init screen:", err)
	}
	screen.SetSize(80, 40)
	t.Cleanup(screen.Fini)

	return newRingView(screen, ledfx.Layout(3))
}

func TestRingViewDraw(t *testing.T) {
	view := newTestView(t)

	var frame ledfx.Frame
	frame[0] = ledfx.Red
	view.Draw(frame, snowflake.ModeRainbow)

	screen := view.screen.(tcell.SimulationScreen)
	cells, w, _ := screen.GetContents()

	pt := view.cells[0]
	cell := cells[pt.Y*w+pt.X]
	assertEq(t, []rune{ledRune}, cell.Runes)

	fg, _, _ := cell.Style.Decompose()
	assertEq(t, tcell.NewRGBColor(255, 0, 0), fg)
}

func TestRingViewCellsDistinct(t *testing.T) {
	view := newTestView(t)

	seen := make(map[[2]int]int)
	for i, pt := range view.cells {
		key := [2]int{pt.X, pt.Y}
		if j, ok := seen[key]; ok {
			t.Errorf("LEDs %d and %d share a cell at %v", j, i, pt)
		}
		seen[key] = i
	}
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name   string
		key    *tcell.EventKey
		err    error
		mode   snowflake.Mode
		quit   bool
		status string
	}{
		{
			name: "quit",
			key:  tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
			mode: snowflake.ModeSnowflake,
			quit: true,
		},
		{
			name: "escape",
			key:  tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
			mode: snowflake.ModeSnowflake,
			quit: true,
		},
		{
			name: "next",
			key:  tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone),
			mode: snowflake.ModeHanukkah,
		},
		{
			name: "set",
			key:  tcell.NewEventKey(tcell.KeyRune, '6', tcell.ModNone),
			mode: snowflake.ModeSparkle,
		},
		{
			name: "out of range",
			key:  tcell.NewEventKey(tcell.KeyRune, '9', tcell.ModNone),
			mode: snowflake.ModeSnowflake,
		},
		{
			name:   "error",
			key:    tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone),
			err:    errors.New("not connected"),
			mode:   snowflake.ModeSnowflake,
			status: "not connected",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			view := newTestView(t)
			r := &fakeRing{mode: snowflake.ModeSnowflake, err: test.err}

			quit := handleKey(view, r, test.key)
			assertEq(t, test.quit, quit)
			assertEq(t, test.mode, r.mode)
			assertEq(t, test.status, view.status)
		})
	}
}
