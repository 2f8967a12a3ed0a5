// Command snowflake-preview shows the snowflake ring in a terminal, either
// rendered locally or streamed from a running snowflaked.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"dev.acmcsuf.com/snowflake/settings"
	"github.com/gdamore/tcell/v2"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	connectURL  = ""
	initialMode = snowflake.DefaultMode.String()
	frameRate   = snowflake.DefaultFrameRate
	layoutScale = 3
	logFile     = ""
	verbose     = false
)

func init() {
	pflag.StringVarP(&connectURL, "connect", "c", connectURL, "websocket URL of a snowflaked, e.g. ws://localhost:9000/ws")
	pflag.StringVarP(&initialMode, "mode", "m", initialMode, "initial mode when rendering locally")
	pflag.IntVar(&frameRate, "frame-rate", frameRate, "frame rate when rendering locally")
	pflag.IntVar(&layoutScale, "scale", layoutScale, "size of the ring on screen")
	pflag.StringVar(&logFile, "log-file", logFile, "file to write logs to, logs are discarded if empty")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	logger, closeLog, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func newLogger() (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// The terminal belongs to the preview, so logs never go to stderr.
	var w io.Writer = io.Discard
	closeLog := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeLog = f.Close
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM",
		NoColor:    true,
	}))
	slog.SetDefault(logger)

	return logger, closeLog, nil
}

func run(ctx context.Context, logger *slog.Logger) error {
	var r ring
	if connectURL != "" {
		r = newRemoteRing(connectURL, logger.With("component", "remote"))
	} else {
		local, err := newLocalRing(logger.With("component", "engine"))
		if err != nil {
			return err
		}
		r = local
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	view := newRingView(screen, ledfx.Layout(layoutScale))
	frames := make(chan ledfx.Frame, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return r.Run(ctx, frames)
	})

	errg.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		return runUI(ctx, view, r, frames)
	})

	return errg.Wait()
}

func newLocalRing(logger *slog.Logger) (*localRing, error) {
	mode, err := snowflake.ParseMode(initialMode)
	if err != nil {
		return nil, err
	}

	frames := snowflake.NewBroadcaster()
	brightness := uint8(100)
	engine := snowflake.NewEngine(snowflake.EngineOpts{
		Strip:      frames,
		FrameRate:  frameRate,
		Brightness: &brightness,
		Logger:     logger,
	})

	controller := snowflake.NewController(engine, settings.NewMemoryStore(), logger)
	if err := controller.SetMode(mode); err != nil {
		return nil, err
	}

	return &localRing{
		Controller: controller,
		engine:     engine,
		frames:     frames,
	}, nil
}
