// Package canvas provides the double-buffered shared-memory pixel canvases a
// surface renders into. A canvas stays busy from the moment it is handed to
// the display server until the server releases it, and is never written or
// reallocated while busy.
package canvas

import (
	"errors"
	"image"
	"image/color"
)

// BytesPerPixel is the size of one ARGB8888 pixel.
const BytesPerPixel = 4

// ErrInvalidSize is returned when a canvas is requested with a non-positive dimension.
var ErrInvalidSize = errors.New("invalid canvas size")

// Stride returns the 4-byte aligned row length in bytes for the given width.
func Stride(width int) int {
	return (BytesPerPixel*width + 3) / 4 * 4
}

// Buffer is the display-server object presenting a canvas.
type Buffer interface {
	Destroy() error
}

// Canvas is one slot of pixel memory shared with the display server.
// Pixels are stored as premultiplied ARGB8888 in little-endian byte order
// (B, G, R, A), which is what wl_shm expects.
type Canvas struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
	Buffer Buffer

	slot  int
	busy  bool
	unmap func() error
}

// Slot returns the index of the canvas within its pool.
func (c *Canvas) Slot() int {
	return c.slot
}

// Busy reports whether the display server currently holds the canvas.
func (c *Canvas) Busy() bool {
	return c.busy
}

// Allocated reports whether the canvas has backing memory.
func (c *Canvas) Allocated() bool {
	return c.Pix != nil
}

// Release frees the mapping and destroys the server-side buffer.
// It is safe to call on a released or never-allocated canvas.
func (c *Canvas) Release() error {
	var errs []error
	if c.Buffer != nil {
		errs = append(errs, c.Buffer.Destroy())
	}
	if c.unmap != nil {
		errs = append(errs, c.unmap())
	}
	*c = Canvas{slot: c.slot}
	return errors.Join(errs...)
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.Width, c.Height)
}

// At implements image.Image.
func (c *Canvas) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(c.Bounds())) {
		return color.RGBA{}
	}
	i := c.offset(x, y)
	return color.RGBA{R: c.Pix[i+2], G: c.Pix[i+1], B: c.Pix[i], A: c.Pix[i+3]}
}

// Set implements draw.Image.
func (c *Canvas) Set(x, y int, col color.Color) {
	if !(image.Point{X: x, Y: y}.In(c.Bounds())) {
		return
	}
	rgba := color.RGBAModel.Convert(col).(color.RGBA)
	i := c.offset(x, y)
	c.Pix[i+0] = rgba.B
	c.Pix[i+1] = rgba.G
	c.Pix[i+2] = rgba.R
	c.Pix[i+3] = rgba.A
}

func (c *Canvas) offset(x, y int) int {
	return y*c.Stride + x*BytesPerPixel
}
