package main

import (
	"fmt"
	"log/slog"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"github.com/kellydunn/go-opc"
	"libdb.so/ledctl"
)

func newStrip(driver string, logger *slog.Logger) (snowflake.Strip, error) {
	switch driver {
	case "ws281x":
		return &ws281xStrip{logger: logger}, nil
	case "opc":
		return newOPCStrip(cfg.OPCServer, logger), nil
	case "none":
		return snowflake.NopStrip{}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

var ws281xConfig = ledctl.WS281xConfig{
	ColorOrder:   ledctl.BGROrder,
	ColorModel:   ledctl.RGBModel,
	PWMFrequency: 800000,
	DMAChannel:   10,
	GPIOPins:     []int{12},
	NumPixels:    ledfx.NumLEDs,
}

// ws281xStrip drives a WS2812 ring wired to the Raspberry Pi PWM pin.
type ws281xStrip struct {
	ctrl       RGBController
	brightness uint8
	logger     *slog.Logger
}

var _ snowflake.Strip = (*ws281xStrip)(nil)

func (s *ws281xStrip) Begin() error {
	ctrl, err := ledctl.NewWS281x(ws281xConfig)
	if err != nil {
		return fmt.Errorf("failed to create a WS281x controller: %v", err)
	}
	s.ctrl = ctrl

	s.logger.Info(
		"initialized WS281x strip",
		"pixels", ws281xConfig.NumPixels,
		"gpio", ws281xConfig.GPIOPins)

	return nil
}

func (s *ws281xStrip) SetBrightness(percent uint8) {
	s.brightness = percent
}

func (s *ws281xStrip) SetPixelColor(i int, c ledfx.Color) {
	c = ledfx.ScaleColor(c, s.brightness)
	s.ctrl.SetRGBAt(i, ledctl.RGB(xcolor.RGBFromUint(uint32(c))))
}

func (s *ws281xStrip) Show() error {
	return s.ctrl.Flush()
}

// opcStrip sends frames to an Open Pixel Control server such as fadecandy.
type opcStrip struct {
	server string
	client *opc.Client
	msg    *opc.Message

	brightness uint8
	logger     *slog.Logger
}

var _ snowflake.Strip = (*opcStrip)(nil)

func newOPCStrip(server string, logger *slog.Logger) *opcStrip {
	msg := opc.NewMessage(0)
	msg.SetLength(uint16(ledfx.NumLEDs * 3))

	return &opcStrip{
		server: server,
		client: opc.NewClient(),
		msg:    msg,
		logger: logger,
	}
}

func (s *opcStrip) Begin() error {
	if err := s.client.Connect("tcp", s.server); err != nil {
		return fmt.Errorf("failed to connect to OPC server %q: %w", s.server, err)
	}

	s.logger.Info(
		"connected to OPC server",
		"server", s.server)

	return nil
}

func (s *opcStrip) SetBrightness(percent uint8) {
	s.brightness = percent
}

func (s *opcStrip) SetPixelColor(i int, c ledfx.Color) {
	r, g, b := ledfx.ScaleColor(c, s.brightness).RGB()
	s.msg.SetPixelColor(i, r, g, b)
}

func (s *opcStrip) Show() error {
	if err := s.client.Send(s.msg); err != nil {
		return fmt.Errorf("failed to send OPC message: %w", err)
	}
	return nil
}
