package wayland

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"
)

// DisplayID is the fixed object id of wl_display.
const DisplayID = 1

// maxFdsPerMessage bounds the ancillary data read per recvmsg, as libwayland does.
const maxFdsPerMessage = 28

// Object is a protocol object living on a connection.
type Object interface {
	ID() uint32
	dispatch(opcode uint16, d *decoder) error
}

// zombie stands in for an object the client destroyed until the server
// confirms with delete_id. Events addressed to it are dropped.
type zombie struct {
	id uint32
}

func (z zombie) ID() uint32 { return z.id }

func (z zombie) dispatch(uint16, *decoder) error { return nil }

// Conn is a client connection to a Wayland compositor.
type Conn struct {
	fd     int
	closed bool

	out    []byte
	outFds []int
	in     []byte
	rbuf   []byte
	oob    []byte

	objects map[uint32]Object
	nextID  uint32
	freeIDs []uint32

	display *Display
	err     error
	logger  *slog.Logger
}

// Dial connects to the compositor socket at path.
func Dial(path string, logger *slog.Logger) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	return NewConn(fd, logger)
}

// NewConn wraps an already connected socket. The connection takes ownership of fd.
func NewConn(fd int, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}

	c := &Conn{
		fd:      fd,
		rbuf:    make([]byte, maxMessageSize),
		oob:     make([]byte, unix.CmsgSpace(maxFdsPerMessage*4)),
		objects: make(map[uint32]Object),
		logger:  logger,
	}
	c.display = &Display{proxy: proxy{conn: c, id: DisplayID, version: 1}}
	c.objects[DisplayID] = c.display
	c.nextID = DisplayID + 1
	return c, nil
}

// Display returns the wl_display singleton.
func (c *Conn) Display() *Display {
	return c.display
}

// Fd returns the socket descriptor for polling.
func (c *Conn) Fd() int {
	return c.fd
}

// register assigns the next free client id to a new object.
func (c *Conn) register(newObject func(id uint32) Object) Object {
	var id uint32
	if n := len(c.freeIDs); n > 0 {
		id = c.freeIDs[n-1]
		c.freeIDs = c.freeIDs[:n-1]
	} else {
		id = c.nextID
		c.nextID++
	}
	obj := newObject(id)
	c.objects[id] = obj
	return obj
}

// forget turns an object into a zombie after its destructor was sent.
func (c *Conn) forget(id uint32) {
	if _, ok := c.objects[id]; ok {
		c.objects[id] = zombie{id: id}
	}
}

// deleteID releases an id the server no longer uses.
func (c *Conn) deleteID(id uint32) {
	if _, ok := c.objects[id]; !ok {
		return
	}
	delete(c.objects, id)
	c.freeIDs = append(c.freeIDs, id)
}

// Object returns the live object with the given id, or nil.
func (c *Conn) Object(id uint32) Object {
	obj := c.objects[id]
	if _, ok := obj.(zombie); ok {
		return nil
	}
	return obj
}

// request queues a message. Nothing is written until Flush.
func (c *Conn) request(sender uint32, opcode uint16, args ...any) error {
	if c.closed {
		return ErrClosed
	}
	out, fds, err := encodeMessage(c.out, sender, opcode, args...)
	if err != nil {
		return fmt.Errorf("encode request %d on object %d: %w", opcode, sender, err)
	}
	queued := len(c.outFds)
	for _, fd := range fds {
		dup, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			for _, d := range c.outFds[queued:] {
				unix.Close(d)
			}
			c.outFds = c.outFds[:queued]
			c.out = out[:len(c.out)]
			return fmt.Errorf("dup fd: %w", err)
		}
		c.outFds = append(c.outFds, dup)
	}
	c.out = out
	return nil
}

// Flush writes queued requests. It returns ErrWouldBlock when the socket
// cannot take more data; the caller should wait for POLLOUT and retry.
func (c *Conn) Flush() error {
	if c.closed {
		return ErrClosed
	}
	for len(c.out) > 0 {
		var oob []byte
		if len(c.outFds) > 0 {
			oob = unix.UnixRights(c.outFds...)
		}
		n, err := unix.SendmsgN(c.fd, c.out, oob, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return ErrWouldBlock
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("sendmsg: %w", err)
		}
		// Descriptors go out with the first byte written.
		for _, fd := range c.outFds {
			unix.Close(fd)
		}
		c.outFds = c.outFds[:0]
		c.out = c.out[n:]
	}
	c.out = c.out[:0]
	return nil
}

// Dispatch reads one batch of events from the socket and runs their handlers.
// It returns nil when no data is available, io.EOF when the compositor hung
// up, and a *ProtocolError when the compositor reported a fatal error.
func (c *Conn) Dispatch() error {
	if c.err != nil {
		return c.err
	}
	if c.closed {
		return ErrClosed
	}

	n, oobn, _, _, err := unix.Recvmsg(c.fd, c.rbuf, c.oob, unix.MSG_DONTWAIT|unix.MSG_CMSG_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("recvmsg: %w", err)
	}
	if oobn > 0 {
		c.discardFds(c.oob[:oobn])
	}
	if n == 0 {
		return io.EOF
	}
	c.in = append(c.in, c.rbuf[:n]...)

	if err := c.processEvents(); err != nil {
		c.err = err
		return err
	}
	return c.err
}

// discardFds closes descriptors received with events. None of the bound
// interfaces send descriptors, so any that arrive are unexpected.
func (c *Conn) discardFds(oob []byte) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return
	}
	for i := range msgs {
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			continue
		}
		for _, fd := range fds {
			c.logger.Debug("closing unexpected fd from compositor", "fd", fd)
			unix.Close(fd)
		}
	}
}

func (c *Conn) processEvents() error {
	for len(c.in) >= headerSize {
		sender, opcode, size := header(c.in)
		if size < headerSize || size > maxMessageSize {
			return fmt.Errorf("invalid message size %d from object %d", size, sender)
		}
		if len(c.in) < size {
			break
		}

		msg := c.in[headerSize:size]
		c.in = c.in[size:]

		obj, ok := c.objects[sender]
		if !ok {
			c.logger.Debug("event for unknown object", "object", sender, "opcode", opcode)
			continue
		}

		d := &decoder{data: msg}
		if err := obj.dispatch(opcode, d); err != nil {
			return fmt.Errorf("object %d event %d: %w", sender, opcode, err)
		}
		if d.err != nil {
			return fmt.Errorf("object %d event %d: %w", sender, opcode, d.err)
		}
		if c.err != nil {
			return c.err
		}
	}

	if len(c.in) == 0 {
		c.in = nil
	}
	return nil
}

// Close closes the socket. Queued requests are discarded.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, fd := range c.outFds {
		unix.Close(fd)
	}
	c.outFds = nil
	c.out = nil
	return unix.Close(c.fd)
}
