package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/Koboldthegreat/river-tag-overlay/internal/canvas"
	"github.com/Koboldthegreat/river-tag-overlay/internal/overlay"
	"github.com/Koboldthegreat/river-tag-overlay/internal/wayland"
)

// CreateSurface creates a click-through overlay-layer surface on the output
// and sends the initial commit.
func (s *Session) CreateSurface(outputID overlay.OutputID, id overlay.SurfaceID, p overlay.Placement) (overlay.SurfaceHandle, error) {
	out, ok := s.outputs[outputID]
	if !ok {
		return nil, fmt.Errorf("unknown output %d", outputID)
	}

	surface, err := s.compositor.CreateSurface()
	if err != nil {
		return nil, err
	}
	layer, err := s.layerShell.GetLayerSurface(surface, out, wayland.LayerOverlay, p.Namespace)
	if err != nil {
		return nil, err
	}
	layer.SetConfigureHandler(func(e wayland.LayerSurfaceConfigureEvent) {
		s.emit(overlay.SurfaceConfigured{
			OutputID:  outputID,
			SurfaceID: id,
			Serial:    e.Serial,
			Width:     e.Width,
			Height:    e.Height,
		})
	})
	layer.SetClosedHandler(func(wayland.LayerSurfaceClosedEvent) {
		s.emit(overlay.SurfaceClosed{OutputID: outputID, SurfaceID: id})
	})

	m := p.Margins
	err = errors.Join(
		layer.SetSize(uint32(p.Width), uint32(p.Height)),
		layer.SetAnchor(p.Anchors),
		layer.SetMargin(m.Top, m.Right, m.Bottom, m.Left),
	)
	if err != nil {
		return nil, err
	}

	// An empty input region lets pointer events fall through to what is below.
	region, err := s.compositor.CreateRegion()
	if err != nil {
		return nil, err
	}
	if err := errors.Join(surface.SetInputRegion(region), region.Destroy(), surface.Commit()); err != nil {
		return nil, err
	}

	return &surfaceHandle{surface: surface, layer: layer}, nil
}

// surfaceHandle is a wl_surface with the layer surface role.
type surfaceHandle struct {
	surface *wayland.Surface
	layer   *wayland.LayerSurface
}

func (h *surfaceHandle) AckConfigure(serial uint32) error {
	return h.layer.AckConfigure(serial)
}

func (h *surfaceHandle) Present(c *canvas.Canvas, scale int) error {
	buf, ok := c.Buffer.(*wayland.Buffer)
	if !ok {
		return fmt.Errorf("canvas slot %d has no compositor buffer", c.Slot())
	}
	if h.surface.Version() >= 3 {
		if err := h.surface.SetBufferScale(int32(scale)); err != nil {
			return err
		}
	}
	if err := h.surface.Attach(buf, 0, 0); err != nil {
		return err
	}
	if h.surface.Version() >= 4 {
		return h.surface.DamageBuffer(0, 0, math.MaxInt32, math.MaxInt32)
	}
	return h.surface.Damage(0, 0, math.MaxInt32, math.MaxInt32)
}

func (h *surfaceHandle) Commit() error {
	return h.surface.Commit()
}

// Destroy destroys the role object before the surface.
func (h *surfaceHandle) Destroy() error {
	return errors.Join(h.layer.Destroy(), h.surface.Destroy())
}

// Allocator returns an allocator whose buffers report releases for the surface.
func (s *Session) Allocator(id overlay.SurfaceID) canvas.Allocator {
	return &shmAllocator{session: s, surface: id}
}

// shmAllocator backs canvases with memfd pages shared through wl_shm.
type shmAllocator struct {
	session *Session
	surface overlay.SurfaceID
}

func (a *shmAllocator) Allocate(slot, width, height, stride int) (*canvas.Allocation, error) {
	size := stride * height
	mem, err := canvas.NewSharedMemory(overlay.Namespace, size)
	if err != nil {
		return nil, err
	}

	pool, err := a.session.shm.CreatePool(mem.Fd, int32(size))
	if err != nil {
		mem.Unmap()
		return nil, fmt.Errorf("create shm pool: %w", err)
	}
	buf, err := pool.CreateBuffer(0, int32(width), int32(height), int32(stride), wayland.ShmFormatARGB8888)
	if err != nil {
		pool.Destroy()
		mem.Unmap()
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	// The compositor keeps the pool alive for as long as the buffer exists,
	// and the request queue holds its own copy of the fd.
	if err := errors.Join(pool.Destroy(), mem.CloseFd()); err != nil {
		buf.Destroy()
		mem.Unmap()
		return nil, err
	}

	id := a.surface
	buf.SetReleaseHandler(func(wayland.BufferReleaseEvent) {
		a.session.emit(overlay.BufferReleased{SurfaceID: id, Slot: slot})
	})

	return &canvas.Allocation{
		Pix:    mem.Pix,
		Buffer: buf,
		Unmap:  mem.Unmap,
	}, nil
}
