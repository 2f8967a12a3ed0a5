package main

import (
	"context"
	"fmt"
	"net/http"

	"dev.acmcsuf.com/snowflake"
	"github.com/go-chi/chi/v5"
	"libdb.so/hrt"
)

type adminHandler struct {
	*chi.Mux
	server     *snowflake.Server
	controller *snowflake.Controller
	engine     *snowflake.Engine
}

func newAdminHandler(server *snowflake.Server, controller *snowflake.Controller, engine *snowflake.Engine) *adminHandler {
	h := &adminHandler{
		Mux:        chi.NewRouter(),
		server:     server,
		controller: controller,
		engine:     engine,
	}

	h.Use(hrt.Use(hrt.Opts{
		Encoder: hrt.CombinedEncoder{
			Encoder: hrt.JSONEncoder,
			Decoder: hrt.URLDecoder,
		},
		ErrorWriter: hrt.TextErrorWriter,
	}))

	h.Get("/mode", hrt.Wrap(h.getMode))
	h.Patch("/mode", hrt.Wrap(h.patchMode))
	h.Post("/mode/next", hrt.Wrap(h.nextMode))
	h.Get("/stats", hrt.Wrap(h.getStats))
	h.Patch("/brightness", hrt.Wrap(h.patchBrightness))
	h.Post("/kick-all", hrt.Wrap(h.kickAll))

	return h
}

type modeResponse struct {
	Mode  snowflake.Mode   `json:"mode"`
	Modes []snowflake.Mode `json:"modes"`
}

func (h *adminHandler) modeResponse(m snowflake.Mode) modeResponse {
	return modeResponse{
		Mode:  m,
		Modes: snowflake.Modes(),
	}
}

func (h *adminHandler) getMode(ctx context.Context, _ hrt.None) (modeResponse, error) {
	return h.modeResponse(h.controller.Mode()), nil
}

type patchModeRequest struct {
	Mode string `query:"mode"`
}

func (h *adminHandler) patchMode(ctx context.Context, req patchModeRequest) (modeResponse, error) {
	m, err := snowflake.ParseMode(req.Mode)
	if err != nil {
		return modeResponse{}, hrt.WrapHTTPError(http.StatusBadRequest, err)
	}

	if err := h.controller.SetMode(m); err != nil {
		return modeResponse{}, err
	}

	return h.modeResponse(m), nil
}

func (h *adminHandler) nextMode(ctx context.Context, _ hrt.None) (modeResponse, error) {
	m, err := h.controller.NextMode()
	if err != nil {
		return modeResponse{}, err
	}
	return h.modeResponse(m), nil
}

type statsResponse struct {
	snowflake.Stats
	Mode       snowflake.Mode `json:"mode"`
	Brightness uint8          `json:"brightness"`
}

func (h *adminHandler) getStats(ctx context.Context, _ hrt.None) (statsResponse, error) {
	return statsResponse{
		Stats:      h.engine.Stats(),
		Mode:       h.engine.Mode(),
		Brightness: h.engine.Brightness(),
	}, nil
}

type patchBrightnessRequest struct {
	Percent int `query:"percent"`
}

func (h *adminHandler) patchBrightness(ctx context.Context, req patchBrightnessRequest) (hrt.None, error) {
	if req.Percent < 0 || req.Percent > 100 {
		return hrt.Empty, hrt.WrapHTTPError(http.StatusBadRequest, fmt.Errorf("brightness %d is not a percentage", req.Percent))
	}
	h.engine.SetBrightness(uint8(req.Percent))
	return hrt.Empty, nil
}

type kickAllRequest struct {
	Reason string `query:"reason"`
}

type kickAllResponse struct {
	Kicked int `json:"kicked"`
}

func (h *adminHandler) kickAll(ctx context.Context, req kickAllRequest) (kickAllResponse, error) {
	n := h.server.KickAllConnections(req.Reason)
	return kickAllResponse{Kicked: n}, nil
}
