package wayland

// LayerShellInterface is the registry name of zwlr_layer_shell_v1.
const LayerShellInterface = "zwlr_layer_shell_v1"

// LayerOverlay is the topmost zwlr_layer_shell_v1 layer, drawn above
// fullscreen windows.
const LayerOverlay uint32 = 3

// LayerShell is the zwlr_layer_shell_v1 global.
type LayerShell struct {
	proxy
}

// BindLayerShell binds a zwlr_layer_shell_v1 global.
func (r *Registry) BindLayerShell(name, version uint32) (*LayerShell, error) {
	return bind(r, name, LayerShellInterface, version, func(p proxy) *LayerShell { return &LayerShell{proxy: p} })
}

// GetLayerSurface gives surface the layer surface role on output.
// A nil output lets the compositor choose.
func (l *LayerShell) GetLayerSurface(surface *Surface, output *Output, layer uint32, namespace string) (*LayerSurface, error) {
	ls := newChild(&l.proxy, func(p proxy) *LayerSurface { return &LayerSurface{proxy: p} })
	var out any
	if output != nil {
		out = output
	}
	return ls, l.request(0, ls, surface, out, layer, namespace)
}

// Destroy destroys the layer shell. Version 3 and later only.
func (l *LayerShell) Destroy() error {
	if l.version < 3 {
		l.destroyed = true
		return nil
	}
	return l.destructor(1)
}

func (l *LayerShell) dispatch(opcode uint16, _ *decoder) error {
	return &UnknownOpcodeError{Interface: LayerShellInterface, Opcode: opcode}
}

// LayerSurface is a zwlr_layer_surface_v1.
type LayerSurface struct {
	proxy
	configure func(LayerSurfaceConfigureEvent)
	closed    func(LayerSurfaceClosedEvent)
}

// LayerSurfaceConfigureEvent asks the client to resize and must be acknowledged.
type LayerSurfaceConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

// LayerSurfaceClosedEvent reports that the compositor will no longer show the surface.
type LayerSurfaceClosedEvent struct{}

// SetConfigureHandler sets the handler for the configure event.
func (s *LayerSurface) SetConfigureHandler(f func(LayerSurfaceConfigureEvent)) {
	s.configure = f
}

// SetClosedHandler sets the handler for the closed event.
func (s *LayerSurface) SetClosedHandler(f func(LayerSurfaceClosedEvent)) {
	s.closed = f
}

// SetSize sets the surface size in surface-local coordinates.
func (s *LayerSurface) SetSize(width, height uint32) error {
	return s.request(0, width, height)
}

// SetAnchor sets the edges the surface is anchored to.
func (s *LayerSurface) SetAnchor(anchor uint32) error {
	return s.request(1, anchor)
}

// SetMargin sets the distance from the anchored edges.
func (s *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	return s.request(3, top, right, bottom, left)
}

// AckConfigure acknowledges a configure event.
func (s *LayerSurface) AckConfigure(serial uint32) error {
	return s.request(6, serial)
}

// Destroy destroys the layer surface.
func (s *LayerSurface) Destroy() error {
	return s.destructor(7)
}

func (s *LayerSurface) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case 0:
		e := LayerSurfaceConfigureEvent{
			Serial: dec.Uint32(),
			Width:  dec.Uint32(),
			Height: dec.Uint32(),
		}
		if dec.err == nil && s.configure != nil {
			s.configure(e)
		}
	case 1:
		if s.closed != nil {
			s.closed(LayerSurfaceClosedEvent{})
		}
	default:
		return &UnknownOpcodeError{Interface: "zwlr_layer_surface_v1", Opcode: opcode}
	}
	return nil
}
