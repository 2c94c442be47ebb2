package canvas

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Slots is the number of canvases per surface.
const Slots = 2

// Allocation is freshly mapped pixel memory wrapped in a server-side buffer.
type Allocation struct {
	Pix    []byte
	Buffer Buffer
	// Unmap frees Pix. It is called once, after Buffer has been destroyed.
	Unmap func() error
}

// Allocator obtains shared pixel memory for one pool slot.
type Allocator interface {
	Allocate(slot, width, height, stride int) (*Allocation, error)
}

// Pool holds the two canvas slots of one surface.
type Pool struct {
	alloc       Allocator
	slots       [Slots]Canvas
	allocations int
	logger      *slog.Logger
}

// NewPool creates an empty pool. Slots are allocated lazily by Acquire.
func NewPool(alloc Allocator, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		alloc:  alloc,
		logger: logger,
	}
	for i := range p.slots {
		p.slots[i].slot = i
	}
	return p
}

// Acquire returns the first free canvas sized width x height.
// It returns nil and no error when every slot is busy; the caller should
// skip this frame and wait for a release. A free slot of the wrong size is
// released and reallocated.
func (p *Pool) Acquire(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	var c *Canvas
	for i := range p.slots {
		if !p.slots[i].busy {
			c = &p.slots[i]
			break
		}
	}
	if c == nil {
		return nil, nil
	}

	if c.Allocated() && c.Width == width && c.Height == height {
		return c, nil
	}

	if err := c.Release(); err != nil {
		p.logger.Warn("failed to release canvas", "slot", c.slot, "error", err)
	}

	stride := Stride(width)
	a, err := p.alloc.Allocate(c.slot, width, height, stride)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate canvas: %w", err)
	}

	c.Width = width
	c.Height = height
	c.Stride = stride
	c.Pix = a.Pix
	c.Buffer = a.Buffer
	c.unmap = a.Unmap
	p.allocations++

	p.logger.Debug("allocated canvas",
		"slot", c.slot,
		"width", width,
		"height", height,
		"size", humanize.Bytes(uint64(stride*height)))

	return c, nil
}

// MarkBusy records that the canvas was handed to the display server.
func (p *Pool) MarkBusy(c *Canvas) {
	c.busy = true
}

// MarkReleased frees a slot after the display server released its buffer.
// Out-of-range slots are ignored.
func (p *Pool) MarkReleased(slot int) {
	if slot < 0 || slot >= Slots {
		return
	}
	p.slots[slot].busy = false
}

// Slot returns the canvas in the given slot.
func (p *Pool) Slot(i int) *Canvas {
	return &p.slots[i]
}

// Allocations returns how many times the pool allocated memory.
func (p *Pool) Allocations() int {
	return p.allocations
}

// Close releases both slots. The pool may be reused afterwards.
func (p *Pool) Close() error {
	var firstErr error
	for i := range p.slots {
		if err := p.slots[i].Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
