package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dev.acmcsuf.com/christmas/lib/csvutil"
	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"dev.acmcsuf.com/snowflake/settings"
	"github.com/caarlos0/env"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

type config struct {
	HTTPAddr      string `env:"SNOWFLAKE_HTTP_ADDR"`
	HTTPAdminAddr string `env:"SNOWFLAKE_HTTP_ADMIN_ADDR"`
	Driver        string `env:"SNOWFLAKE_DRIVER"`
	OPCServer     string `env:"SNOWFLAKE_OPC_SERVER"`
	LEDPointsCSV  string `env:"SNOWFLAKE_LED_POINTS"`
	Settings      string `env:"SNOWFLAKE_SETTINGS"`
	FrameRate     int    `env:"SNOWFLAKE_FRAME_RATE"`
	Brightness    uint   `env:"SNOWFLAKE_BRIGHTNESS"`
	SnowColor     string `env:"SNOWFLAKE_SNOW_COLOR"`
	AccentColor   string `env:"SNOWFLAKE_ACCENT_COLOR"`
	Verbose       bool   `env:"SNOWFLAKE_VERBOSE"`
}

var cfg = config{
	HTTPAddr:      "0.0.0.0:9000",
	HTTPAdminAddr: "127.0.0.1:9002",
	Driver:        "ws281x",
	OPCServer:     "localhost:7890",
	Settings:      "settings.txt",
	FrameRate:     snowflake.DefaultFrameRate,
	Brightness:    snowflake.DefaultBrightness,
	SnowColor:     snowflake.DefaultPalette.Snow.String(),
	AccentColor:   snowflake.DefaultPalette.Accent.String(),
}

func init() {
	pflag.StringVarP(&cfg.HTTPAddr, "http-addr", "a", cfg.HTTPAddr, "HTTP server address")
	pflag.StringVarP(&cfg.HTTPAdminAddr, "http-admin-addr", "A", cfg.HTTPAdminAddr, "HTTP admin server address")
	pflag.StringVarP(&cfg.Driver, "driver", "d", cfg.Driver, "LED strip driver (ws281x, opc, none)")
	pflag.StringVar(&cfg.OPCServer, "opc-server", cfg.OPCServer, "Open Pixel Control server address for the opc driver")
	pflag.StringVar(&cfg.LEDPointsCSV, "led-points", cfg.LEDPointsCSV, "CSV file of LED points, defaults to the built-in ring layout")
	pflag.StringVarP(&cfg.Settings, "settings", "s", cfg.Settings, "settings file, .db or .sqlite for a SQLite database")
	pflag.IntVar(&cfg.FrameRate, "frame-rate", cfg.FrameRate, "target frame rate in Hz")
	pflag.UintVar(&cfg.Brightness, "brightness", cfg.Brightness, "strip brightness in percent")
	pflag.StringVar(&cfg.SnowColor, "snow-color", cfg.SnowColor, "main color of the modes")
	pflag.StringVar(&cfg.AccentColor, "accent-color", cfg.AccentColor, "accent color of the modes")
	pflag.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose logging")
}

const layoutScale = 10

func main() {
	log.SetFlags(0)

	// Environment variables override the defaults, flags override both.
	if err := env.Parse(&cfg); err != nil {
		log.Fatalln("invalid environment:", err)
	}
	pflag.Parse()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	ledCoords := ledfx.Layout(layoutScale)
	if cfg.LEDPointsCSV != "" {
		coords, err := csvutil.UnmarshalFile[image.Point](cfg.LEDPointsCSV)
		if err != nil {
			return fmt.Errorf("failed to unmarshal CSV file %q: %v", cfg.LEDPointsCSV, err)
		}
		if len(coords) != ledfx.NumLEDs {
			return fmt.Errorf("CSV file %q has %d points, need %d", cfg.LEDPointsCSV, len(coords), ledfx.NumLEDs)
		}
		ledCoords = coords
	}

	palette, err := parsePalette(cfg.SnowColor, cfg.AccentColor)
	if err != nil {
		return err
	}

	if cfg.Brightness > 100 {
		return fmt.Errorf("brightness %d is above 100%%", cfg.Brightness)
	}

	strip, err := newStrip(cfg.Driver, logger.With("component", "strip"))
	if err != nil {
		return err
	}

	store, err := settings.Open(cfg.Settings, logger.With("component", "settings"))
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}
	defer store.Close()

	frames := snowflake.NewBroadcaster()
	brightness := uint8(cfg.Brightness)

	engine := snowflake.NewEngine(snowflake.EngineOpts{
		Strip:      snowflake.MultiStrip(strip, frames),
		Modes:      snowflake.NewModeTable(snowflake.ModeTableOpts{Palette: palette}),
		FrameRate:  cfg.FrameRate,
		Brightness: &brightness,
		Logger:     logger.With("component", "engine"),
	})

	controller := snowflake.NewController(engine, store, logger.With("component", "controller"))
	controller.Restore()

	server := snowflake.NewServer(snowflake.ServerOpts{
		Frames: frames,
		Modes:  controller,
		Logger: logger.With("component", "server"),
	})

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return engine.Run(ctx)
	})

	errg.Go(func() error {
		httpLogger := httplog.NewLogger("snowflaked", httplog.Options{
			LogLevel: slog.LevelDebug,
			Concise:  true,
		})

		r := chi.NewRouter()
		r.Use(httplog.RequestLogger(httpLogger))

		r.Get("/ws", server.ServeHTTP)
		r.Get("/events", (&eventsHandler{
			frames:    frames,
			modes:     controller,
			ledCoords: ledCoords,
			logger:    logger.With("component", "events"),
		}).ServeHTTP)

		r.Get("/led-points.csv", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", "attachment; filename=led-points.csv")

			csvw := csv.NewWriter(w)
			csvutil.Marshal(csvw, ledCoords)
		})

		logger.Info(
			"starting public HTTP server",
			"addr", cfg.HTTPAddr)

		return hserve.ListenAndServe(ctx, cfg.HTTPAddr, r)
	})

	errg.Go(func() error {
		admin := newAdminHandler(server, controller, engine)

		logger.Info(
			"starting admin HTTP server",
			"addr", cfg.HTTPAdminAddr)

		return hserve.ListenAndServe(ctx, cfg.HTTPAdminAddr, admin)
	})

	return errg.Wait()
}

func parsePalette(snow, accent string) (snowflake.Palette, error) {
	var p snowflake.Palette
	var err error

	p.Snow, err = ledfx.ParseColor(snow)
	if err != nil {
		return p, fmt.Errorf("invalid snow color: %w", err)
	}

	p.Accent, err = ledfx.ParseColor(accent)
	if err != nil {
		return p, fmt.Errorf("invalid accent color: %w", err)
	}

	return p, nil
}
