package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"dev.acmcsuf.com/snowflake"
	"dev.acmcsuf.com/snowflake/ledfx"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ring is where the previewed frames come from.
type ring interface {
	// Run sends frames until ctx is done. Frames that frames has no room
	// for are dropped.
	Run(ctx context.Context, frames chan<- ledfx.Frame) error
	// Mode returns the last known mode.
	Mode() snowflake.Mode
	SetMode(m snowflake.Mode) error
	NextMode() (snowflake.Mode, error)
}

func offerFrame(frames chan<- ledfx.Frame, frame ledfx.Frame) {
	select {
	case frames <- frame:
	default:
	}
}

// localRing renders the modes in this process.
type localRing struct {
	*snowflake.Controller
	engine *snowflake.Engine
	frames *snowflake.Broadcaster
}

var _ ring = (*localRing)(nil)

func (r *localRing) Run(ctx context.Context, frames chan<- ledfx.Frame) error {
	sub := r.frames.Subscribe()
	defer sub.Close()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return r.engine.Run(ctx)
	})

	errg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sub.Ready():
				offerFrame(frames, sub.Frame())
			}
		}
	})

	return errg.Wait()
}

// remoteRing streams frames from a snowflaked websocket.
type remoteRing struct {
	url    string
	logger *slog.Logger

	mode atomic.Uint32

	connMu sync.Mutex
	conn   net.Conn
}

var _ ring = (*remoteRing)(nil)

var errNotConnected = errors.New("not connected")

func newRemoteRing(url string, logger *slog.Logger) *remoteRing {
	return &remoteRing{
		url:    url,
		logger: logger,
	}
}

func (r *remoteRing) Run(ctx context.Context, frames chan<- ledfx.Frame) error {
	conn, br, _, err := ws.Dial(ctx, r.url)
	if err != nil {
		return fmt.Errorf("failed to dial %q: %w", r.url, err)
	}
	defer conn.Close()

	r.logger.Info(
		"connected",
		"url", r.url)

	// The handshake may have read frames past the HTTP response.
	var rd io.Reader = conn
	if br != nil {
		rd = io.MultiReader(br, conn)
		defer ws.PutReader(br)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{rd, conn}

	r.connMu.Lock()
	r.conn = conn
	r.connMu.Unlock()

	defer func() {
		r.connMu.Lock()
		r.conn = nil
		r.connMu.Unlock()
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := r.send(snowflake.GetModeRequest()); err != nil {
		return err
	}

	for {
		b, op, err := wsutil.ReadServerData(rw)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var closedErr wsutil.ClosedError
			if errors.As(err, &closedErr) {
				return fmt.Errorf("server closed connection: %s", closedErr.Reason)
			}

			return fmt.Errorf("failed to read from websocket: %w", err)
		}

		if op != ws.OpBinary {
			continue
		}

		msg := &structpb.Struct{}
		if err := proto.Unmarshal(b, msg); err != nil {
			return fmt.Errorf("invalid message from server: %w", err)
		}

		if frame, ok := snowflake.DecodeFrame(msg); ok {
			offerFrame(frames, frame)
			continue
		}

		if m, ok := snowflake.DecodeMode(msg); ok {
			r.mode.Store(uint32(m))
			continue
		}

		if text, ok := snowflake.DecodeError(msg); ok {
			return fmt.Errorf("server error: %s", text)
		}

		r.logger.Debug(
			"ignoring unknown message",
			"message", msg.String())
	}
}

func (r *remoteRing) send(msg *structpb.Struct) error {
	b, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.connMu.Lock()
	defer r.connMu.Unlock()

	if r.conn == nil {
		return errNotConnected
	}

	if err := wsutil.WriteClientBinary(r.conn, b); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}

	return nil
}

func (r *remoteRing) Mode() snowflake.Mode {
	return snowflake.Mode(r.mode.Load())
}

// SetMode asks the server to switch modes. The new mode is reported by
// Mode once the server confirms it.
func (r *remoteRing) SetMode(m snowflake.Mode) error {
	return r.send(snowflake.SetModeRequest(m))
}

func (r *remoteRing) NextMode() (snowflake.Mode, error) {
	return r.Mode(), r.send(snowflake.NextModeRequest())
}
