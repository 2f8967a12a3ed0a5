package main

import (
	"context"
	"fmt"
	"image"

	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"github.com/gdamore/tcell/v2"
)

const ledRune = '●'

// ringView draws frames onto a terminal screen.
type ringView struct {
	screen tcell.Screen
	cells  []image.Point
	status string
}

func newRingView(screen tcell.Screen, points []image.Point) *ringView {
	// Terminal cells are about twice as tall as they are wide.
	cells := make([]image.Point, len(points))
	for i, pt := range points {
		cells[i] = image.Pt(pt.X, pt.Y/2)
	}

	return &ringView{
		screen: screen,
		cells:  cells,
	}
}

func (v *ringView) Draw(frame ledfx.Frame, mode snowflake.Mode) {
	v.screen.Clear()

	for i, c := range frame {
		r, g, b := c.RGB()
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
		if c == ledfx.Black {
			style = tcell.StyleDefault.Foreground(tcell.NewRGBColor(40, 40, 40))
		}

		pt := v.cells[i]
		v.screen.SetContent(pt.X, pt.Y, ledRune, nil, style)
	}

	_, h := v.screen.Size()
	v.drawText(0, h-2, fmt.Sprintf("mode: %s", mode))
	v.drawText(0, h-1, "n/space: next mode  0-6: set mode  q: quit  "+v.status)

	v.screen.Show()
}

func (v *ringView) drawText(x, y int, text string) {
	for _, r := range text {
		v.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}

func runUI(ctx context.Context, view *ringView, r ring, frames <-chan ledfx.Frame) error {
	events := make(chan tcell.Event)
	go func() {
		for {
			ev := view.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var last ledfx.Frame

	for {
		select {
		case <-ctx.Done():
			return nil

		case frame := <-frames:
			last = frame
			view.Draw(last, r.Mode())

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				view.screen.Sync()

			case *tcell.EventKey:
				if quit := handleKey(view, r, ev); quit {
					return nil
				}
			}
			view.Draw(last, r.Mode())
		}
	}
}

func handleKey(view *ringView, r ring, ev *tcell.EventKey) (quit bool) {
	var err error

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true

	case tcell.KeyRune:
		switch k := ev.Rune(); {
		case k == 'q':
			return true
		case k == 'n' || k == ' ':
			_, err = r.NextMode()
		case k >= '0' && k < '0'+rune(snowflake.ModeMax):
			err = r.SetMode(snowflake.Mode(k - '0'))
		}
	}

	view.status = ""
	if err != nil {
		view.status = err.Error()
	}

	return false
}
