package overlay

import (
	"github.com/Koboldthegreat/river-tag-overlay/internal/canvas"
	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
)

// Namespace is the layer-shell namespace of the widget.
const Namespace = "river-tag-overlay"

// Placement describes how a surface is laid out on its output.
type Placement struct {
	Width     int
	Height    int
	Anchors   uint32
	Margins   config.Margins
	Namespace string
}

// PlacementFor derives the surface placement from the configuration.
func PlacementFor(cfg *config.Config) Placement {
	w, h := cfg.SurfaceSize()
	return Placement{
		Width:     w,
		Height:    h,
		Anchors:   cfg.Placement.Anchors.Bits(),
		Margins:   cfg.Placement.Margins,
		Namespace: Namespace,
	}
}

// Backend creates the compositor objects the engine drives.
type Backend interface {
	// CreateSurface creates an overlay-layer surface on the output with an
	// empty input region and sends the initial commit. Configure, close and
	// buffer release events for it must carry the given surface id.
	CreateSurface(output OutputID, surface SurfaceID, p Placement) (SurfaceHandle, error)
	// Subscribe starts tag status reporting for the output.
	Subscribe(output OutputID) (Subscription, error)
	// Allocator returns the shared-memory allocator for the surface's canvases.
	Allocator(surface SurfaceID) canvas.Allocator
}

// SurfaceHandle is a live layer surface.
type SurfaceHandle interface {
	AckConfigure(serial uint32) error
	// Present sets the buffer scale, attaches the canvas and damages all of it.
	Present(c *canvas.Canvas, scale int) error
	Commit() error
	// Destroy destroys the layer surface and then the surface.
	Destroy() error
}

// Subscription is a tag status subscription.
type Subscription interface {
	Destroy() error
}

// Connection is the compositor connection driven by Run.
type Connection interface {
	// Fd is polled for readability.
	Fd() int
	// Flush writes queued requests and returns ErrWouldBlock if the socket is full.
	Flush() error
	// Dispatch reads and handles one batch of events. It returns io.EOF once
	// the compositor hangs up.
	Dispatch() error
}
