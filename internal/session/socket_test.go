package session

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSocketPath(t *testing.T) {
	tests := []struct {
		name       string
		display    string
		runtimeDir string
		want       string
		wantErr    bool
	}{
		{name: "relative", display: "wayland-1", runtimeDir: "/run/user/1000", want: "/run/user/1000/wayland-1"},
		{name: "display unset", display: "", runtimeDir: "/run/user/1000", wantErr: true},
		{name: "absolute", display: "/tmp/river.sock", runtimeDir: "", want: "/tmp/river.sock"},
		{name: "no runtime dir", display: "wayland-1", runtimeDir: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WAYLAND_DISPLAY", tt.display)
			t.Setenv("XDG_RUNTIME_DIR", tt.runtimeDir)

			got, err := SocketPath()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoDisplay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWaitForSocket(t *testing.T) {
	t.Run("already there", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wayland-1")
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		assert.NoError(t, WaitForSocket(context.Background(), path, nil))
	})

	t.Run("created later", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wayland-1")
		sw, err := NewSocketWatcher(path, nil)
		require.NoError(t, err)
		defer sw.Close()

		go func() {
			time.Sleep(20 * time.Millisecond)
			os.WriteFile(filepath.Join(filepath.Dir(path), "unrelated"), nil, 0o600)
			os.WriteFile(path, nil, 0o600)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, sw.Wait(ctx))
	})

	t.Run("cancelled", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wayland-1")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, WaitForSocket(ctx, path, nil), context.DeadlineExceeded)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "wayland-1")
		assert.Error(t, WaitForSocket(context.Background(), path, nil))
	})
}

func TestDial(t *testing.T) {
	t.Run("inherited socket", func(t *testing.T) {
		fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		require.NoError(t, err)
		defer unix.Close(fds[1])

		t.Setenv("WAYLAND_SOCKET", strconv.Itoa(fds[0]))
		conn, err := Dial(context.Background(), false, nil)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, fds[0], conn.Fd())
		_, set := os.LookupEnv("WAYLAND_SOCKET")
		assert.False(t, set)
	})

	t.Run("invalid inherited socket", func(t *testing.T) {
		t.Setenv("WAYLAND_SOCKET", "stdin")
		_, err := Dial(context.Background(), false, nil)
		assert.Error(t, err)
	})

	t.Run("unix socket", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "wayland-9")

		lfd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
		require.NoError(t, err)
		defer unix.Close(lfd)
		require.NoError(t, unix.Bind(lfd, &unix.SockaddrUnix{Name: path}))
		require.NoError(t, unix.Listen(lfd, 1))

		t.Setenv("WAYLAND_SOCKET", "")
		os.Unsetenv("WAYLAND_SOCKET")
		t.Setenv("WAYLAND_DISPLAY", "wayland-9")
		t.Setenv("XDG_RUNTIME_DIR", dir)

		conn, err := Dial(context.Background(), false, nil)
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("no socket", func(t *testing.T) {
		t.Setenv("WAYLAND_SOCKET", "")
		os.Unsetenv("WAYLAND_SOCKET")
		t.Setenv("WAYLAND_DISPLAY", "wayland-404")
		t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

		_, err := Dial(context.Background(), false, nil)
		assert.ErrorIs(t, err, ErrNoDisplay)
	})

	t.Run("display unset", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "wayland-0"), nil, 0o600))

		t.Setenv("WAYLAND_SOCKET", "")
		os.Unsetenv("WAYLAND_SOCKET")
		t.Setenv("WAYLAND_DISPLAY", "")
		os.Unsetenv("WAYLAND_DISPLAY")
		t.Setenv("XDG_RUNTIME_DIR", dir)

		_, err := Dial(context.Background(), true, nil)
		assert.ErrorIs(t, err, ErrNoDisplay)
		assert.ErrorContains(t, err, "WAYLAND_DISPLAY")
	})
}
