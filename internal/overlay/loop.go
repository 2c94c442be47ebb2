package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// ExpireIdle destroys every live surface whose last frame is at least the
// configured duration old. It returns the time until the next surviving
// surface expires, and false if no live surface remains.
func (a *App) ExpireIdle(now time.Time) (time.Duration, bool) {
	budget := a.cfg.Display.Duration.Duration()

	var next time.Duration
	pending := false
	for _, o := range a.outputs {
		s := o.surface
		if s == nil || !s.configured {
			continue
		}
		elapsed := now.Sub(s.lastFrame)
		if elapsed >= budget {
			a.logger.Debug("surface idle, hiding", "output", o.id, "elapsed", elapsed)
			if err := a.destroySurface(o); err != nil {
				a.logger.Warn("failed to destroy idle surface", "output", o.id, "error", err)
			}
			continue
		}
		remaining := budget - elapsed
		if !pending || remaining < next {
			next = remaining
			pending = true
		}
	}
	return next, pending
}

// Run drives the engine until ctx is cancelled or the connection fails.
// It returns nil on cancellation and ErrConnectionClosed when the compositor
// hangs up.
func (a *App) Run(ctx context.Context, conn Connection) error {
	var wake [2]int
	if err := unix.Pipe2(wake[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return fmt.Errorf("failed to create wake pipe: %w", err)
	}
	defer unix.Close(wake[0])
	defer unix.Close(wake[1])

	// The waker must be gone before the pipe is closed.
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-ctx.Done():
				unix.Write(wake[1], []byte{0})
				return
			case <-a.reloadCh:
				unix.Write(wake[1], []byte{0})
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		<-exited
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		timeout, pending := a.ExpireIdle(a.now())

		woken, err := a.flush(conn, wake[0])
		if err != nil {
			return err
		}
		if woken {
			a.onWake(wake[0])
			continue
		}

		ms := -1
		if pending {
			ms = timeoutMillis(timeout)
		}
		fds := []unix.PollFd{
			{Fd: int32(conn.Fd()), Events: unix.POLLIN},
			{Fd: int32(wake[0]), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(fds, ms); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		if fds[1].Revents != 0 {
			a.onWake(wake[0])
			continue
		}
		rev := fds[0].Revents
		if rev&unix.POLLIN != 0 {
			if err := conn.Dispatch(); err != nil {
				if errors.Is(err, io.EOF) {
					return ErrConnectionClosed
				}
				return err
			}
			continue
		}
		if rev&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return ErrConnectionClosed
		}
	}
}

// flush writes out queued requests, waiting for the socket to drain while it
// is full. It reports true if the wake fd fired while waiting.
func (a *App) flush(conn Connection, wakeFd int) (bool, error) {
	for {
		err := conn.Flush()
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return false, fmt.Errorf("flush: %w", err)
		}

		fds := []unix.PollFd{
			{Fd: int32(conn.Fd()), Events: unix.POLLOUT},
			{Fd: int32(wakeFd), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return false, fmt.Errorf("poll: %w", err)
		}
		if fds[1].Revents != 0 {
			return true, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return false, ErrConnectionClosed
		}
	}
}

// onWake drains the wake pipe and applies a pending reload. Cancellation is
// picked up at the top of the loop.
func (a *App) onWake(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			break
		}
	}
	a.applyReload()
}

// timeoutMillis rounds d up to whole milliseconds so poll never wakes before
// a surface is due.
func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
