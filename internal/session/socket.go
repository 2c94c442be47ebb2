package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Koboldthegreat/river-tag-overlay/internal/wayland"
)

// redialInterval paces connection attempts to a socket whose compositor
// has not started listening yet.
const redialInterval = 50 * time.Millisecond

// SocketPath returns the compositor socket named by WAYLAND_DISPLAY.
// A relative name is resolved against XDG_RUNTIME_DIR. An unset
// WAYLAND_DISPLAY is an error rather than a guess at wayland-0, which may
// belong to another compositor.
func SocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		return "", fmt.Errorf("%w: WAYLAND_DISPLAY is not set", ErrNoDisplay)
	}
	if filepath.IsAbs(display) {
		return display, nil
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("%w: XDG_RUNTIME_DIR is not set", ErrNoDisplay)
	}
	return filepath.Join(runtimeDir, display), nil
}

// inheritedSocket returns the connected socket handed over in WAYLAND_SOCKET,
// or -1. The variable is consumed so children do not inherit it.
func inheritedSocket() (int, error) {
	v, ok := os.LookupEnv("WAYLAND_SOCKET")
	if !ok {
		return -1, nil
	}
	os.Unsetenv("WAYLAND_SOCKET")

	fd, err := strconv.Atoi(v)
	if err != nil || fd < 0 {
		return -1, fmt.Errorf("invalid WAYLAND_SOCKET %q", v)
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

// Dial connects to the compositor. With wait set, Dial blocks until the
// socket appears and accepts connections, or ctx is done.
func Dial(ctx context.Context, wait bool, logger *slog.Logger) (*wayland.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fd, err := inheritedSocket()
	if err != nil {
		return nil, err
	}
	if fd >= 0 {
		return wayland.NewConn(fd, logger)
	}

	path, err := SocketPath()
	if err != nil {
		return nil, err
	}

	if wait {
		if err := WaitForSocket(ctx, path, logger); err != nil {
			return nil, err
		}
	}

	for {
		conn, err := wayland.Dial(path, logger)
		if err == nil {
			logger.Debug("connected to compositor", "socket", path)
			return conn, nil
		}
		if !wait || !errors.Is(err, unix.ECONNREFUSED) {
			if errors.Is(err, unix.ENOENT) {
				return nil, fmt.Errorf("%w: %s does not exist", ErrNoDisplay, path)
			}
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redialInterval):
		}
	}
}
