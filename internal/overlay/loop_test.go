package overlay

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
)

// fakeConn is a Connection over one end of a socketpair. Bytes written to
// the peer end stand in for compositor events.
type fakeConn struct {
	fd         int
	peer       int
	flushErrs  []error
	dispatchFn func(b []byte) error
	onFlush    func()
	flushes    int
	dispatched int
}

func newFakeConn(t *testing.T) *fakeConn {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return &fakeConn{fd: fds[0], peer: fds[1]}
}

func (c *fakeConn) Fd() int {
	return c.fd
}

func (c *fakeConn) Flush() error {
	c.flushes++
	if c.onFlush != nil {
		c.onFlush()
	}
	if len(c.flushErrs) > 0 {
		err := c.flushErrs[0]
		c.flushErrs = c.flushErrs[1:]
		return err
	}
	return nil
}

func (c *fakeConn) Dispatch() error {
	buf := make([]byte, 64)
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return err
	}
	if n == 0 {
		return io.EOF
	}
	c.dispatched++
	if c.dispatchFn != nil {
		return c.dispatchFn(buf[:n])
	}
	return nil
}

func runAsync(app *App, ctx context.Context, conn Connection) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, conn)
	}()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestRun_Cancel(t *testing.T) {
	app, _, _ := newTestApp(t)
	conn := newFakeConn(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(app, ctx, conn)
	cancel()

	assert.NoError(t, waitRun(t, done))
}

func TestRun_AlreadyCancelled(t *testing.T) {
	app, _, _ := newTestApp(t)
	conn := newFakeConn(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, app.Run(ctx, conn))
	assert.Equal(t, 0, conn.flushes)
}

func TestRun_PeerHangup(t *testing.T) {
	app, _, _ := newTestApp(t)
	conn := newFakeConn(t)
	require.NoError(t, unix.Shutdown(conn.peer, unix.SHUT_WR))

	err := app.Run(context.Background(), conn)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestRun_DispatchesEvents(t *testing.T) {
	app, _, _ := newTestApp(t)
	conn := newFakeConn(t)

	stop := errors.New("stop")
	conn.dispatchFn = func(b []byte) error {
		if string(b) == "quit" {
			return stop
		}
		return nil
	}

	_, err := unix.Write(conn.peer, []byte("quit"))
	require.NoError(t, err)

	err = app.Run(context.Background(), conn)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, conn.dispatched)
}

func TestRun_FlushErrors(t *testing.T) {
	t.Run("fatal", func(t *testing.T) {
		app, _, _ := newTestApp(t)
		conn := newFakeConn(t)
		broken := errors.New("broken pipe")
		conn.flushErrs = []error{broken}

		err := app.Run(context.Background(), conn)
		assert.ErrorIs(t, err, broken)
	})

	t.Run("would block is retried", func(t *testing.T) {
		app, _, _ := newTestApp(t)
		conn := newFakeConn(t)
		conn.flushErrs = []error{ErrWouldBlock, ErrWouldBlock}

		ctx, cancel := context.WithCancel(context.Background())
		conn.onFlush = func() {
			if conn.flushes == 3 {
				cancel()
			}
		}

		done := runAsync(app, ctx, conn)
		assert.NoError(t, waitRun(t, done))
		assert.GreaterOrEqual(t, conn.flushes, 3)
	})
}

func TestRun_ExpiresIdleSurface(t *testing.T) {
	backend := newFakeBackend()
	cfg := config.DefaultConfig()
	cfg.Display.Duration = config.Duration(20 * time.Millisecond)
	app := New(cfg, backend, nil)

	h := liveOutput(t, app, backend)
	conn := newFakeConn(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Flush runs on the loop goroutine each iteration, after expiry.
	var state SurfaceState
	conn.onFlush = func() {
		state = app.State(1)
		if state == SurfaceAbsent {
			cancel()
		}
	}

	start := time.Now()
	done := runAsync(app, ctx, conn)
	require.NoError(t, waitRun(t, done))

	assert.Equal(t, SurfaceAbsent, state)
	assert.True(t, h.destroyed)
	assert.GreaterOrEqual(t, conn.flushes, 2)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTimeoutMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{-time.Millisecond, 0},
		{0, 0},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{time.Millisecond + 1, 2},
		{500 * time.Millisecond, 500},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, timeoutMillis(tt.in))
		})
	}
}

func TestRun_AppliesReload(t *testing.T) {
	app, backend, _ := newTestApp(t)
	h := liveOutput(t, app, backend)
	conn := newFakeConn(t)

	cfg := config.DefaultConfig()
	cfg.Geometry.TagAmount = 2
	app.Reload(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var applied bool
	conn.onFlush = func() {
		if app.cfg == cfg {
			applied = true
			cancel()
		}
	}

	done := runAsync(app, ctx, conn)
	require.NoError(t, waitRun(t, done))

	assert.True(t, applied)
	assert.True(t, h.destroyed)
	assert.Equal(t, SurfaceAbsent, app.State(1))
}
