package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Layer-shell anchor bits.
const (
	AnchorTop    uint32 = 1
	AnchorBottom uint32 = 2
	AnchorLeft   uint32 = 4
	AnchorRight  uint32 = 8
)

// Anchors selects the output edges the widget is attached to.
type Anchors struct {
	Top, Right, Bottom, Left bool
}

// Bits returns the anchors as a layer-shell anchor bitfield.
func (a Anchors) Bits() uint32 {
	var bits uint32
	if a.Top {
		bits |= AnchorTop
	}
	if a.Right {
		bits |= AnchorRight
	}
	if a.Bottom {
		bits |= AnchorBottom
	}
	if a.Left {
		bits |= AnchorLeft
	}
	return bits
}

// String returns the anchors in "top:right:bottom:left" form.
func (a Anchors) String() string {
	b := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	return b(a.Top) + ":" + b(a.Right) + ":" + b(a.Bottom) + ":" + b(a.Left)
}

// UnmarshalText implements encoding.TextUnmarshaler. Any non-zero value enables an edge.
func (a *Anchors) UnmarshalText(text []byte) error {
	v, err := parseQuad(string(text))
	if err != nil {
		return fmt.Errorf("invalid anchor configuration: %w", err)
	}
	*a = Anchors{Top: v[0] > 0, Right: v[1] > 0, Bottom: v[2] > 0, Left: v[3] > 0}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchors) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Set implements pflag.Value.
func (a *Anchors) Set(s string) error {
	return a.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (a *Anchors) Type() string {
	return "t:r:b:l"
}

// Margins are the distances from the anchored edges in logical pixels.
type Margins struct {
	Top, Right, Bottom, Left int32
}

// String returns the margins in "top:right:bottom:left" form.
func (m Margins) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", m.Top, m.Right, m.Bottom, m.Left)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Margins) UnmarshalText(text []byte) error {
	v, err := parseQuad(string(text))
	if err != nil {
		return fmt.Errorf("invalid margin configuration: %w", err)
	}
	*m = Margins{Top: int32(v[0]), Right: int32(v[1]), Bottom: int32(v[2]), Left: int32(v[3])}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Margins) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Set implements pflag.Value.
func (m *Margins) Set(s string) error {
	return m.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (m *Margins) Type() string {
	return "t:r:b:l"
}

// parseQuad parses four colon-separated unsigned integers.
func parseQuad(s string) ([4]uint32, error) {
	var out [4]uint32
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return out, fmt.Errorf("%q: expected four colon-separated values", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return out, fmt.Errorf("%q: %w", s, err)
		}
		if v > math.MaxInt32 {
			return out, fmt.Errorf("%q: value %d out of range", s, v)
		}
		out[i] = uint32(v)
	}
	return out, nil
}
