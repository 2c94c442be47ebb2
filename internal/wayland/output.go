package wayland

// OutputInterface is the registry name of wl_output.
const OutputInterface = "wl_output"

// Output is a wl_output.
type Output struct {
	proxy
	geometry func(OutputGeometryEvent)
	mode     func(OutputModeEvent)
	done     func(OutputDoneEvent)
	scale    func(OutputScaleEvent)
	name     func(OutputNameEvent)
}

// OutputGeometryEvent describes the physical properties of an output.
type OutputGeometryEvent struct {
	X, Y           int32
	PhysicalWidth  int32
	PhysicalHeight int32
	Subpixel       int32
	Make           string
	Model          string
	Transform      int32
}

// OutputModeEvent describes a video mode.
type OutputModeEvent struct {
	Flags   uint32
	Width   int32
	Height  int32
	Refresh int32
}

// OutputDoneEvent marks the end of an atomic batch of output properties.
type OutputDoneEvent struct{}

// OutputScaleEvent announces the output's integer scale factor.
type OutputScaleEvent struct {
	Factor int32
}

// OutputNameEvent announces the output's name, such as "DP-1". Version 4 only.
type OutputNameEvent struct {
	Name string
}

// BindOutput binds a wl_output global.
func (r *Registry) BindOutput(name, version uint32) (*Output, error) {
	return bind(r, name, OutputInterface, version, func(p proxy) *Output { return &Output{proxy: p} })
}

// SetGeometryHandler sets the handler for the geometry event.
func (o *Output) SetGeometryHandler(f func(OutputGeometryEvent)) { o.geometry = f }

// SetModeHandler sets the handler for the mode event.
func (o *Output) SetModeHandler(f func(OutputModeEvent)) { o.mode = f }

// SetDoneHandler sets the handler for the done event.
func (o *Output) SetDoneHandler(f func(OutputDoneEvent)) { o.done = f }

// SetScaleHandler sets the handler for the scale event.
func (o *Output) SetScaleHandler(f func(OutputScaleEvent)) { o.scale = f }

// SetNameHandler sets the handler for the name event.
func (o *Output) SetNameHandler(f func(OutputNameEvent)) { o.name = f }

// Release destroys the output object. Version 3 and later only; on older
// versions the object is only forgotten locally.
func (o *Output) Release() error {
	if o.version < 3 {
		o.destroyed = true
		return nil
	}
	return o.destructor(0)
}

func (o *Output) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case 0:
		e := OutputGeometryEvent{
			X:              dec.Int32(),
			Y:              dec.Int32(),
			PhysicalWidth:  dec.Int32(),
			PhysicalHeight: dec.Int32(),
			Subpixel:       dec.Int32(),
			Make:           dec.String(),
			Model:          dec.String(),
			Transform:      dec.Int32(),
		}
		if dec.err == nil && o.geometry != nil {
			o.geometry(e)
		}
	case 1:
		e := OutputModeEvent{
			Flags:   dec.Uint32(),
			Width:   dec.Int32(),
			Height:  dec.Int32(),
			Refresh: dec.Int32(),
		}
		if dec.err == nil && o.mode != nil {
			o.mode(e)
		}
	case 2:
		if o.done != nil {
			o.done(OutputDoneEvent{})
		}
	case 3:
		e := OutputScaleEvent{Factor: dec.Int32()}
		if dec.err == nil && o.scale != nil {
			o.scale(e)
		}
	case 4:
		e := OutputNameEvent{Name: dec.String()}
		if dec.err == nil && o.name != nil {
			o.name(e)
		}
	case 5: // description
	default:
		return &UnknownOpcodeError{Interface: OutputInterface, Opcode: opcode}
	}
	return nil
}
