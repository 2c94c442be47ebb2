package wayland

// proxy is the client side of a protocol object.
type proxy struct {
	conn      *Conn
	id        uint32
	version   uint32
	destroyed bool
}

// ID returns the object id.
func (p *proxy) ID() uint32 {
	return p.id
}

// Version returns the interface version the object was bound with.
func (p *proxy) Version() uint32 {
	return p.version
}

func (p *proxy) request(opcode uint16, args ...any) error {
	if p.destroyed {
		return ErrDestroyed
	}
	return p.conn.request(p.id, opcode, args...)
}

// destructor sends a destroying request and retires the id.
func (p *proxy) destructor(opcode uint16) error {
	if p.destroyed {
		return nil
	}
	err := p.conn.request(p.id, opcode)
	p.destroyed = true
	p.conn.forget(p.id)
	return err
}

// newChild registers an object created by a request on p. Children inherit the parent's version.
func newChild[T Object](p *proxy, build func(proxy) T) T {
	return p.conn.register(func(id uint32) Object {
		return build(proxy{conn: p.conn, id: id, version: p.version})
	}).(T)
}

// Display is the wl_display singleton.
type Display struct {
	proxy
}

// Sync asks the compositor to signal the returned callback once every
// request sent before it has been processed.
func (d *Display) Sync() (*Callback, error) {
	cb := newChild(&d.proxy, func(p proxy) *Callback { return &Callback{proxy: p} })
	return cb, d.request(0, cb)
}

// GetRegistry creates the registry that announces globals.
func (d *Display) GetRegistry() (*Registry, error) {
	r := newChild(&d.proxy, func(p proxy) *Registry { return &Registry{proxy: p} })
	return r, d.request(1, r)
}

func (d *Display) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case 0: // error
		objectID := dec.Uint32()
		code := dec.Uint32()
		msg := dec.String()
		if dec.err == nil {
			d.conn.err = &ProtocolError{ObjectID: objectID, Code: code, Message: msg}
		}
	case 1: // delete_id
		id := dec.Uint32()
		if dec.err == nil {
			d.conn.deleteID(id)
		}
	default:
		return &UnknownOpcodeError{Interface: "wl_display", Opcode: opcode}
	}
	return nil
}

// Callback is a wl_callback.
type Callback struct {
	proxy
	done func(CallbackDoneEvent)
}

// CallbackDoneEvent reports that the request the callback was created for completed.
type CallbackDoneEvent struct {
	Data uint32
}

// SetDoneHandler sets the handler for the done event.
func (c *Callback) SetDoneHandler(f func(CallbackDoneEvent)) {
	c.done = f
}

func (c *Callback) dispatch(opcode uint16, dec *decoder) error {
	if opcode != 0 {
		return &UnknownOpcodeError{Interface: "wl_callback", Opcode: opcode}
	}
	e := CallbackDoneEvent{Data: dec.Uint32()}
	// The compositor destroys the callback right after done.
	c.destroyed = true
	if dec.err == nil && c.done != nil {
		c.done(e)
	}
	return nil
}

// Registry is the wl_registry global announcer.
type Registry struct {
	proxy
	global       func(RegistryGlobalEvent)
	globalRemove func(RegistryGlobalRemoveEvent)
}

// RegistryGlobalEvent announces a global object.
type RegistryGlobalEvent struct {
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryGlobalRemoveEvent retracts a global object.
type RegistryGlobalRemoveEvent struct {
	Name uint32
}

// SetGlobalHandler sets the handler for the global event.
func (r *Registry) SetGlobalHandler(f func(RegistryGlobalEvent)) {
	r.global = f
}

// SetGlobalRemoveHandler sets the handler for the global_remove event.
func (r *Registry) SetGlobalRemoveHandler(f func(RegistryGlobalRemoveEvent)) {
	r.globalRemove = f
}

// bind binds the global name to a new object of the given interface and version.
func bind[T Object](r *Registry, name uint32, iface string, version uint32, build func(proxy) T) (T, error) {
	obj := r.conn.register(func(id uint32) Object {
		return build(proxy{conn: r.conn, id: id, version: version})
	}).(T)
	return obj, r.request(0, name, iface, version, obj)
}

func (r *Registry) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case 0:
		e := RegistryGlobalEvent{
			Name:      dec.Uint32(),
			Interface: dec.String(),
			Version:   dec.Uint32(),
		}
		if dec.err == nil && r.global != nil {
			r.global(e)
		}
	case 1:
		e := RegistryGlobalRemoveEvent{Name: dec.Uint32()}
		if dec.err == nil && r.globalRemove != nil {
			r.globalRemove(e)
		}
	default:
		return &UnknownOpcodeError{Interface: "wl_registry", Opcode: opcode}
	}
	return nil
}
