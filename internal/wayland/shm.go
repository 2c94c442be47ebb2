package wayland

// ShmInterface is the registry name of wl_shm.
const ShmInterface = "wl_shm"

// ShmFormatARGB8888 is 32-bit ARGB with premultiplied alpha.
const ShmFormatARGB8888 uint32 = 0

// Shm is the wl_shm global.
type Shm struct {
	proxy
	format func(ShmFormatEvent)
}

// ShmFormatEvent announces a supported pixel format.
type ShmFormatEvent struct {
	Format uint32
}

// BindShm binds a wl_shm global.
func (r *Registry) BindShm(name, version uint32) (*Shm, error) {
	return bind(r, name, ShmInterface, version, func(p proxy) *Shm { return &Shm{proxy: p} })
}

// SetFormatHandler sets the handler for the format event.
func (s *Shm) SetFormatHandler(f func(ShmFormatEvent)) {
	s.format = f
}

// CreatePool creates a pool backed by size bytes of the memory behind fd.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	pool := newChild(&s.proxy, func(p proxy) *ShmPool { return &ShmPool{proxy: p} })
	return pool, s.request(0, pool, FD(fd), size)
}

func (s *Shm) dispatch(opcode uint16, dec *decoder) error {
	if opcode != 0 {
		return &UnknownOpcodeError{Interface: ShmInterface, Opcode: opcode}
	}
	e := ShmFormatEvent{Format: dec.Uint32()}
	if dec.err == nil && s.format != nil {
		s.format(e)
	}
	return nil
}

// ShmPool is a wl_shm_pool.
type ShmPool struct {
	proxy
}

// CreateBuffer creates a buffer from a slice of the pool.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	b := newChild(&p.proxy, func(px proxy) *Buffer { return &Buffer{proxy: px} })
	return b, p.request(0, b, offset, width, height, stride, format)
}

// Destroy destroys the pool. Buffers created from it stay valid.
func (p *ShmPool) Destroy() error {
	return p.destructor(1)
}

func (p *ShmPool) dispatch(opcode uint16, _ *decoder) error {
	return &UnknownOpcodeError{Interface: "wl_shm_pool", Opcode: opcode}
}

// Buffer is a wl_buffer.
type Buffer struct {
	proxy
	release func(BufferReleaseEvent)
}

// BufferReleaseEvent reports that the compositor no longer reads the buffer.
type BufferReleaseEvent struct{}

// SetReleaseHandler sets the handler for the release event.
func (b *Buffer) SetReleaseHandler(f func(BufferReleaseEvent)) {
	b.release = f
}

// Destroy destroys the buffer.
func (b *Buffer) Destroy() error {
	return b.destructor(0)
}

func (b *Buffer) dispatch(opcode uint16, _ *decoder) error {
	if opcode != 0 {
		return &UnknownOpcodeError{Interface: "wl_buffer", Opcode: opcode}
	}
	if b.release != nil {
		b.release(BufferReleaseEvent{})
	}
	return nil
}
