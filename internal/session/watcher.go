package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SocketWatcher waits for a compositor socket to be created.
type SocketWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *slog.Logger
}

// NewSocketWatcher starts watching the directory that will hold path.
func NewSocketWatcher(path string, logger *slog.Logger) (*SocketWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory; the socket itself does not exist yet.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &SocketWatcher{
		watcher: watcher,
		path:    path,
		logger:  logger,
	}, nil
}

// Wait returns once the socket exists or ctx is done.
func (sw *SocketWatcher) Wait(ctx context.Context) error {
	// The watch is already in place, so a socket created from here on is seen
	// either by this check or as an event.
	if exists(sw.path) {
		return nil
	}

	name := filepath.Base(sw.path)
	sw.logger.Info("waiting for compositor", "socket", sw.path)

	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return errors.New("socket watcher closed")
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Create) && exists(sw.path) {
				sw.logger.Debug("compositor socket appeared", "socket", sw.path)
				return nil
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return errors.New("socket watcher closed")
			}
			sw.logger.Warn("socket watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops watching.
func (sw *SocketWatcher) Close() error {
	return sw.watcher.Close()
}

// WaitForSocket blocks until path exists or ctx is done.
func WaitForSocket(ctx context.Context, path string, logger *slog.Logger) error {
	if exists(path) {
		return nil
	}
	sw, err := NewSocketWatcher(path, logger)
	if err != nil {
		return err
	}
	defer sw.Close()
	return sw.Wait(ctx)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
