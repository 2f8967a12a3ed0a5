package snowflake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// closeGracePeriod is how long the peer gets to answer our close frame
// before the connection is dropped.
const closeGracePeriod = 2 * time.Second

// wsConn pumps protobuf messages between channels and a server-side
// websocket connection.
type wsConn struct {
	// Incoming receives messages from the client.
	Incoming chan *structpb.Struct
	// Outgoing holds messages to be written to the client.
	Outgoing chan *structpb.Struct

	conn   io.ReadWriteCloser
	logger *slog.Logger
}

func newWSConn(conn io.ReadWriteCloser, logger *slog.Logger) *wsConn {
	return &wsConn{
		Incoming: make(chan *structpb.Struct),
		Outgoing: make(chan *structpb.Struct),
		conn:     conn,
		logger:   logger,
	}
}

// Send queues a message to the client.
func (c *wsConn) Send(ctx context.Context, msg *structpb.Struct) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.Outgoing <- msg:
		return nil
	}
}

// SendError sends an error message to the client. The connection is closed
// once it has been written.
func (c *wsConn) SendError(ctx context.Context, err error) error {
	return c.Send(ctx, errorMessage(err))
}

// Start runs the connection until ctx is done, the client closes the
// connection or an error is delivered to the client.
func (c *wsConn) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()

		c.logger.DebugContext(ctx,
			"closing websocket",
			"cause", context.Cause(ctx))

		if err := c.conn.Close(); err != nil {
			c.logger.WarnContext(ctx,
				"failed to close websocket",
				"error", err)

			return fmt.Errorf("failed to close websocket: %w", err)
		}

		return nil
	})

	errg.Go(func() error {
		defer cancel()
		return c.readLoop(ctx)
	})

	errg.Go(func() error {
		return c.writeLoop(ctx, errg, cancel)
	})

	return errg.Wait()
}

func (c *wsConn) readLoop(ctx context.Context) error {
	var buf bytes.Buffer
	buf.Grow(512)

	for {
		if _, err := readFrame(&buf, c.conn, ws.StateServerSide, ws.OpBinary); err != nil {
			var closedErr wsutil.ClosedError
			if errors.As(err, &closedErr) {
				c.logger.DebugContext(ctx,
					"client closed websocket",
					"code", closedErr.Code)

				return nil
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("failed to read from websocket: %w", err)
		}

		msg := &structpb.Struct{}
		if err := proto.Unmarshal(buf.Bytes(), msg); err != nil {
			// Keep reading so that the client's close frame is answered.
			if err := c.SendError(ctx, fmt.Errorf("failed to unmarshal message: %w", err)); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.Incoming <- msg:
		}
	}
}

func (c *wsConn) writeLoop(ctx context.Context, errg *errgroup.Group, cancel context.CancelFunc) error {
	marshaler := proto.MarshalOptions{Deterministic: true}
	buf := make([]byte, 0, 1024)

	for {
		var msg *structpb.Struct
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-c.Outgoing:
		}

		var err error
		buf, err = marshaler.MarshalAppend(buf[:0], msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		if err := wsutil.WriteServerBinary(c.conn, buf); err != nil {
			return fmt.Errorf("failed to write to websocket: %w", err)
		}

		if !isErrorMessage(msg) {
			continue
		}

		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "error delivered to client")
		if err := ws.WriteFrame(c.conn, ws.NewCloseFrame(body)); err != nil {
			c.logger.WarnContext(ctx,
				"failed to write close frame",
				"error", err)
		}

		// Wait for the client to acknowledge the close frame, but not
		// forever.
		errg.Go(func() error {
			timer := time.NewTimer(closeGracePeriod)
			defer timer.Stop()

			select {
			case <-timer.C:
				cancel()
			case <-ctx.Done():
			}
			return nil
		})

		return nil
	}
}

// readFrame reads the next data message of the wanted opcode into dst,
// answering control frames and skipping other data frames.
func readFrame(dst *bytes.Buffer, src io.ReadWriter, state ws.State, want ws.OpCode) (ws.OpCode, error) {
	controlHandler := wsutil.ControlFrameHandler(src, state)
	rd := wsutil.Reader{
		Source:         src,
		State:          state,
		OnIntermediate: controlHandler,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return 0, err
		}

		if hdr.OpCode.IsControl() {
			if err := controlHandler(hdr, &rd); err != nil {
				return 0, err
			}
			continue
		}

		if hdr.OpCode&want == 0 {
			if err := rd.Discard(); err != nil {
				return 0, err
			}
			continue
		}

		dst.Reset()
		_, err = io.Copy(dst, &rd)
		return hdr.OpCode, err
	}
}
