package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Koboldthegreat/river-tag-overlay/internal/canvas"
	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
	"github.com/Koboldthegreat/river-tag-overlay/internal/tags"
)

func newImage(cfg *config.Config, scale int) *image.RGBA {
	w, h := cfg.SurfaceSize()
	return image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
}

func premul(c config.Color) color.RGBA {
	return c.Premultiplied()
}

func TestSquareOrigin(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		i     int
		wantX int
		wantY int
	}{
		{0, 17, 17},
		{1, 72, 17},
		{8, 457, 17},
	}

	for _, tt := range tests {
		x, y := SquareOrigin(cfg, tt.i)
		assert.Equal(t, tt.wantX, x, "tag %d", tt.i)
		assert.Equal(t, tt.wantY, y, "tag %d", tt.i)
	}

	// The last square ends padding+border before the surface edge.
	w, _ := cfg.SurfaceSize()
	r := SquareRect(cfg, cfg.Geometry.TagAmount-1, 1)
	assert.Equal(t, w-cfg.Geometry.SquarePadding-cfg.Geometry.BorderWidth, r.Max.X)
}

func TestFrame_Layout(t *testing.T) {
	cfg := config.DefaultConfig()
	img := newImage(cfg, 1)

	Frame(img, tags.State{Focused: 1 << 0, View: 1 << 0, Urgent: 1 << 1}, 1, cfg)

	tests := []struct {
		name string
		x, y int
		want config.Color
	}{
		{"frame border corner", 0, 0, cfg.Colors.Border},
		{"frame border inner edge", 1, 1, cfg.Colors.Border},
		{"frame background", 2, 2, cfg.Colors.Background},
		{"frame bottom right", 513, 73, cfg.Colors.Border},
		{"active square border", 17, 17, cfg.Colors.Active.Border},
		{"active square background", 18, 18, cfg.Colors.Active.Background},
		{"occupied indicator border", 27, 27, cfg.Colors.Active.Border},
		{"occupied indicator fill", 28, 28, cfg.Colors.Active.Occupied},
		{"urgent square border", 72, 17, cfg.Colors.Urgent.Border},
		{"urgent square background", 90, 30, cfg.Colors.Urgent.Background},
		{"inactive square background", 130, 30, cfg.Colors.Inactive.Background},
		{"gap between squares", 60, 30, cfg.Colors.Background},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, premul(tt.want), img.RGBAAt(tt.x, tt.y))
		})
	}
}

func TestFrame_ColorClass(t *testing.T) {
	cfg := config.DefaultConfig()
	x, y := SquareOrigin(cfg, 0)
	x, y = x+2, y+2

	tests := []struct {
		name  string
		state tags.State
		want  config.Color
	}{
		{"focused", tags.State{Focused: 1}, cfg.Colors.Active.Background},
		{"focused wins over urgent", tags.State{Focused: 1, Urgent: 1}, cfg.Colors.Active.Background},
		{"urgent", tags.State{Urgent: 1}, cfg.Colors.Urgent.Background},
		{"inactive", tags.State{Focused: 2, Urgent: 2}, cfg.Colors.Inactive.Background},
		{"occupied only", tags.State{View: 1}, cfg.Colors.Inactive.Background},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := newImage(cfg, 1)
			Frame(img, tt.state, 1, cfg)
			assert.Equal(t, premul(tt.want), img.RGBAAt(x, y))
		})
	}
}

func TestFrame_Scale(t *testing.T) {
	cfg := config.DefaultConfig()
	img := newImage(cfg, 2)

	Frame(img, tags.State{View: 1}, 2, cfg)

	assert.Equal(t, premul(cfg.Colors.Border), img.RGBAAt(3, 3))
	assert.Equal(t, premul(cfg.Colors.Background), img.RGBAAt(4, 4))
	assert.Equal(t, premul(cfg.Colors.Background), img.RGBAAt(33, 33))
	assert.Equal(t, premul(cfg.Colors.Inactive.Border), img.RGBAAt(34, 34))
	assert.Equal(t, premul(cfg.Colors.Inactive.Border), img.RGBAAt(35, 35))
	assert.Equal(t, premul(cfg.Colors.Inactive.Background), img.RGBAAt(36, 36))
	assert.Equal(t, premul(cfg.Colors.Inactive.Occupied), img.RGBAAt(56, 56))
	assert.Equal(t, premul(cfg.Colors.Border), img.RGBAAt(1027, 147))
}

func TestFrame_NoCrossFrameLeakage(t *testing.T) {
	cfg := config.DefaultConfig()

	once := newImage(cfg, 1)
	Frame(once, tags.State{Focused: 1, View: 0b101}, 1, cfg)

	cycled := newImage(cfg, 1)
	Frame(cycled, tags.State{Focused: 1, View: 0b101}, 1, cfg)
	Frame(cycled, tags.State{Focused: 1, View: 0}, 1, cfg)
	Frame(cycled, tags.State{Focused: 1, View: 0b101}, 1, cfg)

	assert.Equal(t, once.Pix, cycled.Pix)
}

func TestFrame_Deterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	st := tags.State{Focused: 0b10, View: 0b111, Urgent: 0b1000}

	a := newImage(cfg, 1)
	b := newImage(cfg, 1)
	// Garbage in the destination must not show through.
	for i := range b.Pix {
		b.Pix[i] = 0xa5
	}

	Frame(a, st, 1, cfg)
	Frame(b, st, 1, cfg)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestFrame_TranslucentColors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Colors.Background = config.MustParseColor("0xFF000080")
	img := newImage(cfg, 1)

	Frame(img, tags.State{}, 1, cfg)

	// Src composition: the translucent value replaces rather than blends.
	assert.Equal(t, color.RGBA{R: 0x80, A: 0x80}, img.RGBAAt(5, 5))
}

type sliceAllocator struct{}

func (sliceAllocator) Allocate(slot, width, height, stride int) (*canvas.Allocation, error) {
	return &canvas.Allocation{Pix: make([]byte, stride*height)}, nil
}

func TestFrame_IntoCanvas(t *testing.T) {
	cfg := config.DefaultConfig()
	w, h := cfg.SurfaceSize()

	pool := canvas.NewPool(sliceAllocator{}, nil)
	c, err := pool.Acquire(w, h)
	require.NoError(t, err)

	ref := newImage(cfg, 1)
	st := tags.State{Focused: 1, View: 0b11, Urgent: 0b100}
	Frame(c, st, 1, cfg)
	Frame(ref, st, 1, cfg)

	for _, p := range []image.Point{{0, 0}, {20, 20}, {30, 30}, {80, 30}, {130, 30}, {513, 73}} {
		assert.Equal(t, ref.RGBAAt(p.X, p.Y), c.At(p.X, p.Y), "pixel %v", p)
	}

	// wl_shm ARGB8888 is B, G, R, A in memory.
	bg := premul(cfg.Colors.Background)
	i := 5*c.Stride + 5*canvas.BytesPerPixel
	assert.Equal(t, []byte{bg.B, bg.G, bg.R, bg.A}, c.Pix[i:i+4])
}
