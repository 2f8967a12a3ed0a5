package snowflake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/errgroup"
	"gopkg.in/typ.v4/sync2"
)

// ServerOpts are options for a server.
type ServerOpts struct {
	// Frames is where rendered frames are streamed from. If nil, sessions
	// only handle mode commands.
	Frames *Broadcaster
	// Modes switches the mode of the ring on client request.
	Modes ModeSwitcher
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// Server serves the preview and control websocket.
type Server struct {
	opts     ServerOpts
	sessions sync2.Map[uuid.UUID, context.CancelCauseFunc]
}

// NewServer creates a new server.
func NewServer(opts ServerOpts) *Server {
	return &Server{opts: opts}
}

// KickAllConnections kicks all connections from the server.
// Optionally, a reason can be provided.
func (s *Server) KickAllConnections(reason string) int {
	err := errors.New("kicked")
	if reason != "" {
		err = fmt.Errorf("kicked: %s", reason)
	}

	var n int
	s.sessions.Range(func(_ uuid.UUID, cancel context.CancelCauseFunc) bool {
		cancel(err)
		n++
		return true
	})
	return n
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := s.opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		s.opts.Logger.DebugContext(r.Context(),
			"failed to upgrade HTTP",
			"error", err)
		// The upgrader has already written the error response.
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		conn.Close()
		s.opts.Logger.ErrorContext(r.Context(),
			"failed to generate session ID",
			"error", err)
		return
	}

	logger := s.opts.Logger.With(
		"session", id.String(),
		"addr", conn.RemoteAddr())

	session := NewSession(conn, s.opts, logger)

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	s.sessions.Store(id, cancel)
	defer s.sessions.Delete(id)

	logger.Info("session started")

	if err := session.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn(
			"session ended with error",
			"error", err)
		return
	}

	logger.Info(
		"session ended",
		"cause", context.Cause(ctx))
}

// Session is a websocket session. It implements handling of messages from a
// single client.
type Session struct {
	ws     *wsConn
	logger *slog.Logger
	opts   ServerOpts
}

// NewSession creates a session on an already upgraded websocket connection.
func NewSession(conn io.ReadWriteCloser, opts ServerOpts, logger *slog.Logger) *Session {
	return &Session{
		ws:     newWSConn(conn, logger),
		logger: logger,
		opts:   opts,
	}
}

// Start runs the session until ctx is done or the connection is closed.
func (s *Session) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return s.ws.Start(ctx)
	})

	errg.Go(func() error {
		// Errors from the main loop are the client's fault. They are
		// delivered to it instead of being returned.
		if err := s.mainLoop(ctx); err != nil {
			return s.ws.SendError(ctx, err)
		}
		return nil
	})

	return errg.Wait()
}

func (s *Session) mainLoop(ctx context.Context) error {
	var frames <-chan struct{}
	var sub *FrameSubscription

	if s.opts.Frames != nil {
		sub = s.opts.Frames.Subscribe()
		defer sub.Close()
		frames = sub.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-frames:
			frame := sub.Frame()
			if err := s.ws.Send(ctx, frameMessage(&frame)); err != nil {
				return nil
			}

		case msg := <-s.ws.Incoming:
			req, err := parseClientMessage(msg)
			if err != nil {
				return err
			}

			m, err := s.handle(req)
			if err != nil {
				return err
			}

			if err := s.ws.Send(ctx, modeMessage(m)); err != nil {
				return nil
			}
		}
	}
}

func (s *Session) handle(req clientRequest) (Mode, error) {
	switch req.command {
	case commandGetMode:
		return s.opts.Modes.Mode(), nil

	case commandSetMode:
		if err := s.opts.Modes.SetMode(req.mode); err != nil {
			return 0, fmt.Errorf("failed to set mode: %w", err)
		}
		s.logger.Info(
			"client set mode",
			"mode", req.mode)
		return req.mode, nil

	case commandNextMode:
		m, err := s.opts.Modes.NextMode()
		if err != nil {
			return 0, fmt.Errorf("failed to switch mode: %w", err)
		}
		s.logger.Info(
			"client switched to next mode",
			"mode", m)
		return m, nil

	default:
		return 0, errUnknownMessage
	}
}
