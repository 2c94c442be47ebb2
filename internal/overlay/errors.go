package overlay

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by Connection.Flush when the socket is full.
	ErrWouldBlock = errors.New("flush would block")
	// ErrConnectionClosed is returned by Run when the compositor hung up.
	ErrConnectionClosed = errors.New("compositor closed the connection")
)

// SurfaceError reports a failed surface operation on an output.
type SurfaceError struct {
	OutputID OutputID
	Op       string
	Cause    error
}

func (e *SurfaceError) Error() string {
	msg := fmt.Sprintf("output %d: %s", e.OutputID, e.Op)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *SurfaceError) Unwrap() error {
	return e.Cause
}
