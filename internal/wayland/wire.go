package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerSize = 8
	// maxMessageSize is the largest message the protocol allows.
	maxMessageSize = 4096
)

var order = binary.NativeEndian

// FD is a file descriptor argument. The connection duplicates it when the
// request is queued, so the caller keeps ownership of the original.
type FD int

// encodeMessage appends a message to buf. Arguments may be uint32, int32,
// string, []byte (array), Object (its id) or nil (the null object).
// FD arguments are returned separately since they travel out of band.
func encodeMessage(buf []byte, sender uint32, opcode uint16, args ...any) ([]byte, []int, error) {
	start := len(buf)
	buf = order.AppendUint32(buf, sender)
	buf = order.AppendUint32(buf, 0) // size and opcode, patched below

	var fds []int
	for _, arg := range args {
		switch v := arg.(type) {
		case uint32:
			buf = order.AppendUint32(buf, v)
		case int32:
			buf = order.AppendUint32(buf, uint32(v))
		case string:
			buf = appendString(buf, v)
		case []byte:
			buf = appendArray(buf, v)
		case FD:
			fds = append(fds, int(v))
		case Object:
			buf = order.AppendUint32(buf, v.ID())
		case nil:
			buf = order.AppendUint32(buf, 0)
		default:
			return buf[:start], nil, fmt.Errorf("unsupported argument type %T", arg)
		}
	}

	size := len(buf) - start
	if size > maxMessageSize {
		return buf[:start], nil, fmt.Errorf("message of %d bytes exceeds protocol limit", size)
	}
	order.PutUint32(buf[start+4:], uint32(size)<<16|uint32(opcode))
	return buf, fds, nil
}

func appendString(buf []byte, s string) []byte {
	// Length includes the terminating NUL.
	n := len(s) + 1
	buf = order.AppendUint32(buf, uint32(n))
	buf = append(buf, s...)
	buf = append(buf, 0)
	return appendPadding(buf, n)
}

func appendArray(buf []byte, a []byte) []byte {
	buf = order.AppendUint32(buf, uint32(len(a)))
	buf = append(buf, a...)
	return appendPadding(buf, len(a))
}

func appendPadding(buf []byte, n int) []byte {
	for ; n%4 != 0; n++ {
		buf = append(buf, 0)
	}
	return buf
}

func padded(n int) int {
	return (n + 3) &^ 3
}

// header splits a message header into sender, opcode and size.
func header(b []byte) (sender uint32, opcode uint16, size int) {
	sender = order.Uint32(b[0:4])
	word := order.Uint32(b[4:8])
	return sender, uint16(word & 0xffff), int(word >> 16)
}

var errShortMessage = errors.New("message truncated")

// decoder reads event arguments. The first error sticks and all later reads
// return zero values.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) Uint32() uint32 {
	if d.err != nil {
		return 0
	}
	if d.off+4 > len(d.data) {
		d.err = errShortMessage
		return 0
	}
	v := order.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *decoder) Int32() int32 {
	return int32(d.Uint32())
}

func (d *decoder) Array() []byte {
	n := int(d.Uint32())
	if d.err != nil {
		return nil
	}
	if d.off+padded(n) > len(d.data) {
		d.err = errShortMessage
		return nil
	}
	v := d.data[d.off : d.off+n]
	d.off += padded(n)
	return v
}

func (d *decoder) String() string {
	b := d.Array()
	if len(b) == 0 {
		return ""
	}
	// Drop the terminating NUL.
	return string(b[:len(b)-1])
}

// Uint32Array decodes an array of 32-bit words.
func (d *decoder) Uint32Array() []uint32 {
	b := d.Array()
	if d.err != nil {
		return nil
	}
	if len(b)%4 != 0 {
		d.err = fmt.Errorf("array length %d is not a multiple of 4", len(b))
		return nil
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = order.Uint32(b[i*4:])
	}
	return out
}
