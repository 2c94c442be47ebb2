// Package session binds the compositor globals river-tag-overlay needs and
// turns their protocol events into overlay events.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Koboldthegreat/river-tag-overlay/internal/overlay"
	"github.com/Koboldthegreat/river-tag-overlay/internal/tags"
	"github.com/Koboldthegreat/river-tag-overlay/internal/wayland"
)

// Highest interface versions the client speaks.
const (
	compositorVersion    = 4
	shmVersion           = 1
	layerShellVersion    = 3
	statusManagerVersion = 2
	outputVersion        = 4
)

// Session is a compositor connection with the globals bound.
// It implements overlay.Backend and overlay.Connection.
type Session struct {
	conn     *wayland.Conn
	registry *wayland.Registry
	sync     *wayland.Callback
	logger   *slog.Logger

	compositor    *wayland.Compositor
	shm           *wayland.Shm
	layerShell    *wayland.LayerShell
	statusManager *wayland.StatusManager
	outputs       map[overlay.OutputID]*wayland.Output

	handler func(overlay.Event) error
	err     error
}

// Connect dials the compositor and starts the registry roundtrip.
// With wait set, a missing socket is waited for instead of failing.
func Connect(ctx context.Context, wait bool, logger *slog.Logger) (*Session, error) {
	conn, err := Dial(ctx, wait, logger)
	if err != nil {
		return nil, err
	}
	s, err := New(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New starts the registry roundtrip on conn. Globals are bound as their
// announcements are dispatched, and overlay.Synced is emitted once the
// roundtrip completes with every required global present.
func New(conn *wayland.Conn, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		conn:    conn,
		logger:  logger,
		outputs: make(map[overlay.OutputID]*wayland.Output),
	}

	registry, err := conn.Display().GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}
	registry.SetGlobalHandler(s.onGlobal)
	registry.SetGlobalRemoveHandler(s.onGlobalRemove)
	s.registry = registry

	cb, err := conn.Display().Sync()
	if err != nil {
		return nil, fmt.Errorf("failed to sync: %w", err)
	}
	cb.SetDoneHandler(s.onSyncDone)
	s.sync = cb

	return s, nil
}

// SetHandler sets the function events are delivered to. An error returned
// by it is returned from the Dispatch call that produced the event.
func (s *Session) SetHandler(f func(overlay.Event) error) {
	s.handler = f
}

// Fd returns the socket descriptor.
func (s *Session) Fd() int {
	return s.conn.Fd()
}

// Flush writes queued requests.
func (s *Session) Flush() error {
	err := s.conn.Flush()
	if errors.Is(err, wayland.ErrWouldBlock) {
		return overlay.ErrWouldBlock
	}
	return err
}

// Dispatch reads and handles one batch of events.
func (s *Session) Dispatch() error {
	if s.err != nil {
		return s.err
	}
	if err := s.conn.Dispatch(); err != nil {
		return err
	}
	return s.err
}

// Close destroys the bound globals, flushes and closes the connection.
// Outputs must have been torn down by the engine first.
func (s *Session) Close() error {
	var errs []error
	for id, out := range s.outputs {
		if err := out.Release(); err != nil {
			errs = append(errs, err)
		}
		delete(s.outputs, id)
	}
	if s.layerShell != nil {
		if err := s.layerShell.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.statusManager != nil {
		if err := s.statusManager.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.conn.Flush(); err != nil && !errors.Is(err, wayland.ErrClosed) {
		s.logger.Debug("failed to flush on close", "error", err)
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// emit delivers ev unless an earlier event already failed.
func (s *Session) emit(ev overlay.Event) {
	if s.err != nil || s.handler == nil {
		return
	}
	if err := s.handler(ev); err != nil {
		s.err = err
	}
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) onGlobal(e wayland.RegistryGlobalEvent) {
	var err error
	switch e.Interface {
	case wayland.CompositorInterface:
		s.compositor, err = s.registry.BindCompositor(e.Name, min(e.Version, compositorVersion))
	case wayland.ShmInterface:
		s.shm, err = s.registry.BindShm(e.Name, min(e.Version, shmVersion))
	case wayland.LayerShellInterface:
		s.layerShell, err = s.registry.BindLayerShell(e.Name, min(e.Version, layerShellVersion))
	case wayland.StatusManagerInterface:
		s.statusManager, err = s.registry.BindStatusManager(e.Name, min(e.Version, statusManagerVersion))
	case wayland.OutputInterface:
		err = s.addOutput(e)
	default:
		return
	}
	if err != nil {
		s.fail(fmt.Errorf("failed to bind %s: %w", e.Interface, err))
		return
	}
	s.logger.Debug("bound global", "interface", e.Interface, "name", e.Name, "version", e.Version)
}

func (s *Session) addOutput(e wayland.RegistryGlobalEvent) error {
	out, err := s.registry.BindOutput(e.Name, min(e.Version, outputVersion))
	if err != nil {
		return err
	}
	id := overlay.OutputID(e.Name)
	out.SetScaleHandler(func(ev wayland.OutputScaleEvent) {
		s.emit(overlay.OutputScale{OutputID: id, Factor: int(ev.Factor)})
	})
	out.SetNameHandler(func(ev wayland.OutputNameEvent) {
		s.logger.Debug("output name", "output", id, "name", ev.Name)
	})
	s.outputs[id] = out
	s.emit(overlay.OutputAdded{OutputID: id})
	return nil
}

func (s *Session) onGlobalRemove(e wayland.RegistryGlobalRemoveEvent) {
	id := overlay.OutputID(e.Name)
	out, ok := s.outputs[id]
	if !ok {
		return
	}
	s.emit(overlay.OutputRemoved{OutputID: id})
	delete(s.outputs, id)
	if err := out.Release(); err != nil {
		s.fail(fmt.Errorf("failed to release output %d: %w", id, err))
	}
}

func (s *Session) onSyncDone(wayland.CallbackDoneEvent) {
	s.sync = nil
	if err := s.checkGlobals(); err != nil {
		s.fail(err)
		return
	}
	s.emit(overlay.Synced{})
}

// checkGlobals reports the first required global the compositor lacks.
func (s *Session) checkGlobals() error {
	switch {
	case s.compositor == nil:
		return &MissingGlobalError{Interface: wayland.CompositorInterface}
	case s.shm == nil:
		return &MissingGlobalError{Interface: wayland.ShmInterface}
	case s.layerShell == nil:
		return &MissingGlobalError{Interface: wayland.LayerShellInterface}
	case s.statusManager == nil:
		return &MissingGlobalError{Interface: wayland.StatusManagerInterface}
	}
	return nil
}

// Subscribe starts tag status reporting for the output.
func (s *Session) Subscribe(id overlay.OutputID) (overlay.Subscription, error) {
	out, ok := s.outputs[id]
	if !ok {
		return nil, fmt.Errorf("unknown output %d", id)
	}
	if s.statusManager == nil {
		return nil, &MissingGlobalError{Interface: wayland.StatusManagerInterface}
	}

	status, err := s.statusManager.GetOutputStatus(out)
	if err != nil {
		return nil, err
	}
	status.SetFocusedTagsHandler(func(e wayland.OutputStatusFocusedTagsEvent) {
		s.emit(overlay.TagsChanged{Kind: overlay.TagsFocused, OutputID: id, Mask: tags.Mask(e.Tags)})
	})
	status.SetViewTagsHandler(func(e wayland.OutputStatusViewTagsEvent) {
		s.emit(overlay.TagsChanged{Kind: overlay.TagsView, OutputID: id, Views: e.Tags})
	})
	status.SetUrgentTagsHandler(func(e wayland.OutputStatusUrgentTagsEvent) {
		s.emit(overlay.TagsChanged{Kind: overlay.TagsUrgent, OutputID: id, Mask: tags.Mask(e.Tags)})
	})
	return status, nil
}
