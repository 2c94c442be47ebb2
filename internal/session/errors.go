package session

import (
	"errors"
	"fmt"
)

// ErrNoDisplay is returned when no compositor socket can be located.
var ErrNoDisplay = errors.New("no wayland display")

// MissingGlobalError reports a required global the compositor does not offer.
type MissingGlobalError struct {
	Interface string
}

func (e *MissingGlobalError) Error() string {
	return fmt.Sprintf("compositor does not support %s", e.Interface)
}
