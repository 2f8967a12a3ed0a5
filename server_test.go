package snowflake

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"dev.acmcsuf.com/snowflake/ledfx"
	"dev.acmcsuf.com/snowflake/settings"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestSession(t *testing.T) {
	tests := []struct {
		name string
		play func(t *testing.T, conn io.ReadWriteCloser, env *testEnv)
	}{
		{
			name: "get mode",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				writeClientMessage(t, conn, GetModeRequest())
				assertMessage(t, conn, modeMessage(ModeSnowflake))
			},
		},
		{
			name: "set mode",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				writeClientMessage(t, conn, SetModeRequest(ModeRainbow))
				assertMessage(t, conn, modeMessage(ModeRainbow))

				assertEq(t, ModeRainbow, env.engine.Mode())
				assertEq(t, "3", env.store.Get(ModeSettingKey))
			},
		},
		{
			name: "next mode",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				writeClientMessage(t, conn, SetModeRequest(ModeSparkle))
				assertMessage(t, conn, modeMessage(ModeSparkle))

				writeClientMessage(t, conn, NextModeRequest())
				assertMessage(t, conn, modeMessage(ModeSnowflake))

				assertEq(t, "1", env.store.Get(ModeSettingKey))
			},
		},
		{
			name: "invalid mode",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				writeClientMessage(t, conn, newMessage(fieldSetMode, structpb.NewStringValue("disco")))
				assertMessage(t, conn, errorMessage(errors.New(`invalid mode: "disco"`)))
				expectCloseFrame(t, conn)

				assertEq(t, ModeSnowflake, env.engine.Mode())
			},
		},
		{
			name: "unknown message",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				writeClientMessage(t, conn, newMessage("dance", structpb.NewBoolValue(true)))
				assertMessage(t, conn, errorMessage(errors.New(`unknown message: "dance"`)))
				expectCloseFrame(t, conn)
			},
		},
		{
			name: "frames",
			play: func(t *testing.T, conn io.ReadWriteCloser, env *testEnv) {
				// The reply guarantees the session is subscribed.
				writeClientMessage(t, conn, GetModeRequest())
				assertMessage(t, conn, modeMessage(ModeSnowflake))

				env.engine.Render(0)

				msg := readServerMessage(t, conn)
				frame, ok := DecodeFrame(msg)
				if !ok {
					t.Fatal("expected frame message, got", msg)
				}
				assertEq(t, env.engine.Frame(), frame)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env := newTestEnv(t)
			conn := startTestSession(t, ctx, env)
			test.play(t, conn, env)
		})
	}
}

func TestProtocolDecode(t *testing.T) {
	var frame ledfx.Frame
	frame[0] = ledfx.White
	frame[35] = 0x0038B8

	decoded, ok := DecodeFrame(frameMessage(&frame))
	assertEq(t, true, ok)
	assertEq(t, frame, decoded)

	_, ok = DecodeFrame(modeMessage(ModeOff))
	assertEq(t, false, ok)

	m, ok := DecodeMode(modeMessage(ModeChaseHoliday))
	assertEq(t, true, ok)
	assertEq(t, ModeChaseHoliday, m)

	text, ok := DecodeError(errorMessage(errors.New("oops")))
	assertEq(t, true, ok)
	assertEq(t, "oops", text)
}

type testEnv struct {
	engine *Engine
	store  *settings.MemoryStore
	frames *Broadcaster
	opts   ServerOpts
}

func newTestEnv(t *testing.T) *testEnv {
	logger := slogt.New(t)
	frames := NewBroadcaster()
	store := settings.NewMemoryStore()

	engine := NewEngine(EngineOpts{
		Strip:  frames,
		Clock:  newFakeClock(),
		Logger: logger,
	})

	return &testEnv{
		engine: engine,
		store:  store,
		frames: frames,
		opts: ServerOpts{
			Frames: frames,
			Modes:  NewController(engine, store, logger),
			Logger: logger,
		},
	}
}

func writeClientMessage(t *testing.T, conn io.ReadWriteCloser, msg *structpb.Struct) {
	t.Helper()

	b, err := proto.Marshal(msg)
	if err != nil {
		t.Fatal("invalid client proto message:", err)
	}
	if err := wsutil.WriteClientBinary(conn, b); err != nil {
		t.Fatal("error writing client message:", err)
	}
}

func readServerMessage(t *testing.T, conn io.ReadWriteCloser) *structpb.Struct {
	t.Helper()

	b, err := wsutil.ReadServerBinary(conn)
	if err != nil {
		t.Fatal("error reading server message:", err)
	}

	msg := &structpb.Struct{}
	if err := proto.Unmarshal(b, msg); err != nil {
		t.Fatal("invalid server proto message:", err)
	}

	return msg
}

func assertMessage(t *testing.T, conn io.ReadWriteCloser, expect *structpb.Struct) {
	t.Helper()

	actual := readServerMessage(t, conn)
	assertEq(t, expect, actual)
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	opts = append(opts, protocmp.Transform())
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func expectCloseFrame(t *testing.T, conn io.ReadWriteCloser) {
	t.Helper()
	var closedErr wsutil.ClosedError

	_, op, err := wsutil.ReadServerData(conn)
	if err == nil {
		t.Fatal("no close frame received, got op", op)
	}
	if !errors.As(err, &closedErr) {
		t.Fatal("unexpected non-ClosedError while reading server data:", err)
	}
}

func startTestSession(t *testing.T, ctx context.Context, env *testEnv) io.ReadWriteCloser {
	t.Helper()

	conn1, conn2 := net.Pipe()

	t.Cleanup(func() {
		conn1.Close()
		conn2.Close()
	})

	session := NewSession(conn1, env.opts, env.opts.Logger)

	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Error("server session error:", err)
		}
	})

	go func() {
		errCh <- session.Start(ctx)
	}()

	return conn2
}
