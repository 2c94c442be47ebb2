// Package render draws the tag overlay widget.
package render

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
	"github.com/Koboldthegreat/river-tag-overlay/internal/tags"
)

// Frame draws the widget for st into dst. dst is expected to be sized to
// the surface size multiplied by scale; every coordinate is scaled the same way.
// Every pixel of the widget is overwritten, so the result never depends on
// what dst held before.
func Frame(dst draw.Image, st tags.State, scale int, cfg *config.Config) {
	if scale < 1 {
		scale = 1
	}
	g := cfg.Geometry

	borderedRect(dst, dst.Bounds(), g.BorderWidth*scale, cfg.Colors.Background, cfg.Colors.Border)

	for i := 0; i < g.TagAmount; i++ {
		colors := cfg.SquareColorsFor(st.IsActive(i), st.IsUrgent(i))
		sq := SquareRect(cfg, i, scale).Add(dst.Bounds().Min)
		border := g.SquareBorderWidth * scale

		borderedRect(dst, sq, border, colors.Background, colors.Border)
		if st.IsOccupied(i) {
			borderedRect(dst, sq.Inset(g.SquareInnerPadding*scale), border, colors.Occupied, colors.Border)
		}
	}
}

// SquareOrigin returns the top-left corner of tag square i in logical pixels.
func SquareOrigin(cfg *config.Config, i int) (x, y int) {
	g := cfg.Geometry
	x = g.BorderWidth + (i+1)*g.SquarePadding + i*g.SquareSize
	y = g.BorderWidth + g.SquarePadding
	return x, y
}

// SquareRect returns the bounds of tag square i at the given scale.
func SquareRect(cfg *config.Config, i, scale int) image.Rectangle {
	x, y := SquareOrigin(cfg, i)
	size := cfg.Geometry.SquareSize
	return image.Rect(x*scale, y*scale, (x+size)*scale, (y+size)*scale)
}

// borderedRect fills r with bg and frames it with a border of the given width.
func borderedRect(dst draw.Image, r image.Rectangle, border int, bg, bd config.Color) {
	fill(dst, r, bg)
	if border <= 0 {
		return
	}

	// top, bottom, left, right
	fill(dst, rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+border), bd)
	fill(dst, rect(r.Min.X, r.Max.Y-border, r.Max.X, r.Max.Y), bd)
	fill(dst, rect(r.Min.X, r.Min.Y+border, r.Min.X+border, r.Max.Y-border), bd)
	fill(dst, rect(r.Max.X-border, r.Min.Y+border, r.Max.X, r.Max.Y-border), bd)
}

// rect is like image.Rect but leaves inverted rectangles empty instead of
// swapping their corners.
func rect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rectangle{Min: image.Pt(x0, y0), Max: image.Pt(x1, y1)}
}

func fill(dst draw.Image, r image.Rectangle, c config.Color) {
	draw.Draw(dst, r, image.NewUniform(c.Premultiplied()), image.Point{}, draw.Src)
}
