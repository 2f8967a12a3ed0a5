package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/snowflake"
)

// Event is a server-sent event streamed to browser previews.
type Event interface {
	Type() EventType
}

// EventType is the SSE event name.
type EventType string

const (
	EventTypeInit  EventType = "init"
	EventTypeFrame EventType = "frame"
)

// EventInit is the first event of every stream.
type EventInit struct {
	LEDCoords []image.Point  `json:"led_coords"`
	Mode      snowflake.Mode `json:"mode"`
}

func (EventInit) Type() EventType { return EventTypeInit }

// EventFrame carries one rendered frame.
type EventFrame struct {
	LEDColors []xcolor.RGB   `json:"led_colors"`
	Mode      snowflake.Mode `json:"mode"`
}

func (EventFrame) Type() EventType { return EventTypeFrame }

type writeFlusher interface {
	io.Writer
	http.Flusher
}

func writeEvent(w writeFlusher, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Type(), err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), b); err != nil {
		return err
	}

	w.Flush()
	return nil
}

// eventsHandler streams frames as server-sent events.
type eventsHandler struct {
	frames    *snowflake.Broadcaster
	modes     snowflake.ModeSwitcher
	ledCoords []image.Point
	logger    *slog.Logger
}

func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wflush, ok := w.(writeFlusher)
	if !ok {
		http.Error(w, "server does not support flushing", http.StatusInternalServerError)
		return
	}

	sub := h.frames.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	err := writeEvent(wflush, EventInit{
		LEDCoords: h.ledCoords,
		Mode:      h.modes.Mode(),
	})
	if err != nil {
		h.logger.Debug(
			"failed to write init event",
			"error", err)
		return
	}

	colors := make([]xcolor.RGB, len(h.ledCoords))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Ready():
			frame := sub.Frame()
			for i := range colors {
				colors[i] = xcolor.RGBFromUint(uint32(frame[i]))
			}

			err := writeEvent(wflush, EventFrame{
				LEDColors: colors,
				Mode:      h.modes.Mode(),
			})
			if err != nil {
				h.logger.Debug(
					"event stream closed",
					"error", err)
				return
			}
		}
	}
}
