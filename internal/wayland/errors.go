package wayland

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by Flush when the socket buffer is full.
	ErrWouldBlock = errors.New("wayland: flush would block")
	// ErrClosed is returned for operations on a closed connection.
	ErrClosed = errors.New("wayland: use of closed connection")
	// ErrDestroyed is returned for requests on an object that was already destroyed.
	ErrDestroyed = errors.New("wayland: object destroyed")
)

// ProtocolError is a fatal error reported by the compositor through wl_display.error.
type ProtocolError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wayland protocol error on object %d (code %d): %s", e.ObjectID, e.Code, e.Message)
}

// UnknownOpcodeError is returned when an event opcode is outside the bound interface version.
type UnknownOpcodeError struct {
	Interface string
	Opcode    uint16
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown %s event opcode %d", e.Interface, e.Opcode)
}
