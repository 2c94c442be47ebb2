package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Koboldthegreat/river-tag-overlay/internal/canvas"
	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
	"github.com/Koboldthegreat/river-tag-overlay/internal/render"
	"github.com/Koboldthegreat/river-tag-overlay/internal/tags"
)

// output is the per-output record of the registry.
type output struct {
	id           OutputID
	scale        int
	state        tags.State
	subscription Subscription
	surface      *surface
}

// surface is one incarnation of an output's widget.
type surface struct {
	id         SurfaceID
	handle     SurfaceHandle
	pool       *canvas.Pool
	configured bool
	// dirty is set when a frame was skipped for lack of a free canvas.
	dirty     bool
	lastFrame time.Time
}

// App owns every output and drives their surfaces.
type App struct {
	cfg       *config.Config
	backend   Backend
	placement Placement
	logger    *slog.Logger
	now       func() time.Time

	outputs       map[OutputID]*output
	synced        bool
	nextSurfaceID SurfaceID

	// pending is handed over from Reload callers to the loop goroutine.
	mu       sync.Mutex
	pending  *config.Config
	reloadCh chan struct{}
}

// New creates an engine rendering with cfg on top of backend.
func New(cfg *config.Config, backend Backend, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:       cfg,
		backend:   backend,
		placement: PlacementFor(cfg),
		logger:    logger,
		now:       time.Now,
		outputs:   make(map[OutputID]*output),
		reloadCh:  make(chan struct{}, 1),
	}
}

// Reload schedules cfg to replace the configuration. It may be called from
// any goroutine; Run applies the latest scheduled config on its own.
func (a *App) Reload(cfg *config.Config) {
	a.mu.Lock()
	a.pending = cfg
	a.mu.Unlock()

	select {
	case a.reloadCh <- struct{}{}:
	default:
	}
}

// applyReload installs a scheduled configuration. Visible surfaces are torn
// down and come back with the new geometry on the next tag change.
func (a *App) applyReload() {
	a.mu.Lock()
	cfg := a.pending
	a.pending = nil
	a.mu.Unlock()

	if cfg == nil {
		return
	}
	a.cfg = cfg
	a.placement = PlacementFor(cfg)
	for _, o := range a.outputs {
		if err := a.destroySurface(o); err != nil {
			a.logger.Warn("failed to destroy surface on reload", "output", o.id, "error", err)
		}
	}
	a.logger.Info("configuration applied")
}

// SetClock replaces the time source used for frame timestamps.
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// Outputs returns the number of known outputs.
func (a *App) Outputs() int {
	return len(a.outputs)
}

// State returns the lifecycle state of the output's surface.
func (a *App) State(id OutputID) SurfaceState {
	o, ok := a.outputs[id]
	if !ok || o.surface == nil {
		return SurfaceAbsent
	}
	if !o.surface.configured {
		return SurfacePendingConfigure
	}
	return SurfaceLive
}

// Tags returns the last known tag state of the output.
func (a *App) Tags(id OutputID) (tags.State, bool) {
	o, ok := a.outputs[id]
	if !ok {
		return tags.State{}, false
	}
	return o.state, true
}

// Handle applies one compositor event.
func (a *App) Handle(ev Event) error {
	switch e := ev.(type) {
	case OutputAdded:
		return a.addOutput(e)
	case OutputRemoved:
		return a.removeOutput(e.OutputID)
	case OutputScale:
		a.setScale(e)
		return nil
	case TagsChanged:
		return a.onTags(e)
	case BufferReleased:
		return a.onRelease(e)
	case SurfaceConfigured:
		return a.onConfigure(e)
	case SurfaceClosed:
		return a.onClosed(e)
	case Synced:
		return a.onSynced()
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

// Close tears down every output. The App is unusable afterwards.
func (a *App) Close() error {
	var errs []error
	for id := range a.outputs {
		if err := a.removeOutput(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) addOutput(e OutputAdded) error {
	if _, ok := a.outputs[e.OutputID]; ok {
		a.logger.Warn("output announced twice", "output", e.OutputID)
		return nil
	}
	o := &output{id: e.OutputID, scale: 1}
	a.outputs[e.OutputID] = o
	a.logger.Debug("output added", "output", e.OutputID)

	if a.synced {
		return a.subscribe(o)
	}
	return nil
}

func (a *App) removeOutput(id OutputID) error {
	o, ok := a.outputs[id]
	if !ok {
		return nil
	}
	delete(a.outputs, id)

	var errs []error
	if err := a.destroySurface(o); err != nil {
		errs = append(errs, err)
	}
	if o.subscription != nil {
		if err := o.subscription.Destroy(); err != nil {
			errs = append(errs, &SurfaceError{OutputID: id, Op: "destroy subscription", Cause: err})
		}
		o.subscription = nil
	}
	a.logger.Debug("output removed", "output", id)
	return errors.Join(errs...)
}

func (a *App) setScale(e OutputScale) {
	o, ok := a.outputs[e.OutputID]
	if !ok {
		return
	}
	if e.Factor < 1 {
		a.logger.Warn("ignoring invalid output scale", "output", e.OutputID, "scale", e.Factor)
		return
	}
	o.scale = e.Factor
}

func (a *App) onSynced() error {
	a.synced = true
	var errs []error
	for _, o := range a.outputs {
		if o.subscription != nil {
			continue
		}
		if err := a.subscribe(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) subscribe(o *output) error {
	sub, err := a.backend.Subscribe(o.id)
	if err != nil {
		return &SurfaceError{OutputID: o.id, Op: "subscribe to tag status", Cause: err}
	}
	o.subscription = sub
	return nil
}

func (a *App) onTags(e TagsChanged) error {
	o, ok := a.outputs[e.OutputID]
	if !ok {
		return nil
	}

	switch e.Kind {
	case TagsFocused:
		o.state.Focused = e.Mask
		return a.update(o)
	case TagsView:
		o.state.View = tags.FoldViews(e.Views)
		if o.surface == nil {
			return nil
		}
		return a.update(o)
	case TagsUrgent:
		prev := o.state.Urgent
		o.state.Urgent = e.Mask
		if !tags.NewlyUrgent(prev, o.state.Focused, e.Mask) {
			return nil
		}
		return a.update(o)
	default:
		return fmt.Errorf("unknown tags kind %d", e.Kind)
	}
}

// update shows the output's current state, creating the surface if needed.
// A surface waiting for its first configure is left alone; the configure
// renders whatever the state is by then.
func (a *App) update(o *output) error {
	s := o.surface
	if s == nil {
		return a.createSurface(o)
	}
	if !s.configured {
		return nil
	}
	return a.renderAndCommit(o)
}

func (a *App) onConfigure(e SurfaceConfigured) error {
	o, s := a.lookup(e.OutputID, e.SurfaceID)
	if s == nil {
		a.logger.Debug("configure for stale surface", "output", e.OutputID, "surface", e.SurfaceID)
		return nil
	}
	if err := s.handle.AckConfigure(e.Serial); err != nil {
		return &SurfaceError{OutputID: o.id, Op: "ack configure", Cause: err}
	}
	if !s.configured {
		a.logger.Debug("surface configured",
			"output", o.id,
			"surface", s.id,
			"width", e.Width,
			"height", e.Height)
	}
	s.configured = true
	return a.renderAndCommit(o)
}

func (a *App) onClosed(e SurfaceClosed) error {
	o, s := a.lookup(e.OutputID, e.SurfaceID)
	if s == nil {
		return nil
	}
	a.logger.Debug("surface closed by compositor", "output", o.id, "surface", s.id)
	return a.destroySurface(o)
}

func (a *App) onRelease(e BufferReleased) error {
	for _, o := range a.outputs {
		s := o.surface
		if s == nil || s.id != e.SurfaceID {
			continue
		}
		s.pool.MarkReleased(e.Slot)
		if s.dirty && s.configured {
			return a.renderAndCommit(o)
		}
		return nil
	}
	return nil
}

// lookup returns the output and its surface if the surface is still the one
// the event was addressed to.
func (a *App) lookup(outputID OutputID, surfaceID SurfaceID) (*output, *surface) {
	o, ok := a.outputs[outputID]
	if !ok || o.surface == nil || o.surface.id != surfaceID {
		return nil, nil
	}
	return o, o.surface
}

func (a *App) createSurface(o *output) error {
	a.nextSurfaceID++
	id := a.nextSurfaceID

	handle, err := a.backend.CreateSurface(o.id, id, a.placement)
	if err != nil {
		return &SurfaceError{OutputID: o.id, Op: "create surface", Cause: err}
	}
	o.surface = &surface{
		id:     id,
		handle: handle,
		pool:   canvas.NewPool(a.backend.Allocator(id), a.logger.With("output", o.id)),
	}
	a.logger.Debug("surface created", "output", o.id, "surface", id)
	return nil
}

// renderAndCommit draws the output's state into a free canvas and commits it.
// The frame is skipped when no canvas is free or memory cannot be allocated.
func (a *App) renderAndCommit(o *output) error {
	s := o.surface
	scale := o.scale

	w, h := a.cfg.SurfaceSize()
	c, err := s.pool.Acquire(w*scale, h*scale)
	if err != nil {
		a.logger.Error("skipping frame", "output", o.id, "error", err)
		return s.commit(o.id)
	}
	if c == nil {
		a.logger.Debug("no free canvas, skipping frame", "output", o.id, "surface", s.id)
		s.dirty = true
		return s.commit(o.id)
	}

	render.Frame(c, o.state, scale, a.cfg)
	if err := s.handle.Present(c, scale); err != nil {
		return &SurfaceError{OutputID: o.id, Op: "present frame", Cause: err}
	}
	s.pool.MarkBusy(c)
	s.dirty = false
	s.lastFrame = a.now()
	return s.commit(o.id)
}

func (s *surface) commit(id OutputID) error {
	if err := s.handle.Commit(); err != nil {
		return &SurfaceError{OutputID: id, Op: "commit", Cause: err}
	}
	return nil
}

// destroySurface releases the canvases and destroys the layer surface.
func (a *App) destroySurface(o *output) error {
	s := o.surface
	if s == nil {
		return nil
	}
	o.surface = nil

	var errs []error
	if err := s.pool.Close(); err != nil {
		errs = append(errs, &SurfaceError{OutputID: o.id, Op: "release canvases", Cause: err})
	}
	if err := s.handle.Destroy(); err != nil {
		errs = append(errs, &SurfaceError{OutputID: o.id, Op: "destroy surface", Cause: err})
	}
	a.logger.Debug("surface destroyed", "output", o.id, "surface", s.id)
	return errors.Join(errs...)
}
