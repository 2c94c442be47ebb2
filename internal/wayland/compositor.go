package wayland

// CompositorInterface is the registry name of wl_compositor.
const CompositorInterface = "wl_compositor"

// Compositor is the wl_compositor global.
type Compositor struct {
	proxy
}

// BindCompositor binds a wl_compositor global.
func (r *Registry) BindCompositor(name, version uint32) (*Compositor, error) {
	return bind(r, name, CompositorInterface, version, func(p proxy) *Compositor { return &Compositor{proxy: p} })
}

// CreateSurface creates a new surface.
func (c *Compositor) CreateSurface() (*Surface, error) {
	s := newChild(&c.proxy, func(p proxy) *Surface { return &Surface{proxy: p} })
	return s, c.request(0, s)
}

// CreateRegion creates a new, empty region.
func (c *Compositor) CreateRegion() (*Region, error) {
	r := newChild(&c.proxy, func(p proxy) *Region { return &Region{proxy: p} })
	return r, c.request(1, r)
}

func (c *Compositor) dispatch(opcode uint16, _ *decoder) error {
	return &UnknownOpcodeError{Interface: CompositorInterface, Opcode: opcode}
}

// Surface is a wl_surface.
type Surface struct {
	proxy
}

// Destroy destroys the surface.
func (s *Surface) Destroy() error {
	return s.destructor(0)
}

// Attach sets buffer as the pending content. A nil buffer removes the content.
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	if buffer == nil {
		return s.request(1, nil, x, y)
	}
	return s.request(1, buffer, x, y)
}

// Damage marks a region of the surface, in surface coordinates, as changed.
func (s *Surface) Damage(x, y, width, height int32) error {
	return s.request(2, x, y, width, height)
}

// SetInputRegion sets the region that accepts pointer and touch input.
// A nil region means the whole surface.
func (s *Surface) SetInputRegion(region *Region) error {
	if region == nil {
		return s.request(5, nil)
	}
	return s.request(5, region)
}

// Commit applies the pending state.
func (s *Surface) Commit() error {
	return s.request(6)
}

// SetBufferScale sets the scale of attached buffers. Requires version 3.
func (s *Surface) SetBufferScale(scale int32) error {
	return s.request(8, scale)
}

// DamageBuffer marks a region of the buffer, in buffer coordinates, as changed.
// Requires version 4.
func (s *Surface) DamageBuffer(x, y, width, height int32) error {
	return s.request(9, x, y, width, height)
}

func (s *Surface) dispatch(opcode uint16, _ *decoder) error {
	// enter, leave and the preferred scale events carry nothing the overlay uses.
	return nil
}

// Region is a wl_region.
type Region struct {
	proxy
}

// Destroy destroys the region.
func (r *Region) Destroy() error {
	return r.destructor(0)
}

// Add adds a rectangle to the region.
func (r *Region) Add(x, y, width, height int32) error {
	return r.request(1, x, y, width, height)
}

func (r *Region) dispatch(opcode uint16, _ *decoder) error {
	return &UnknownOpcodeError{Interface: "wl_region", Opcode: opcode}
}
