package wayland

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage_Header(t *testing.T) {
	buf, fds, err := encodeMessage(nil, 7, 3, uint32(1), int32(-1))
	require.NoError(t, err)
	assert.Empty(t, fds)
	require.Len(t, buf, 16)

	sender, opcode, size := header(buf)
	assert.Equal(t, uint32(7), sender)
	assert.Equal(t, uint16(3), opcode)
	assert.Equal(t, 16, size)
	assert.Equal(t, uint32(0xffffffff), order.Uint32(buf[12:]))
}

func TestEncodeMessage_StringPadding(t *testing.T) {
	tests := []struct {
		s        string
		wantSize int // argument bytes including the length word
	}{
		{"", 4 + 4},
		{"abc", 4 + 4},
		{"abcd", 4 + 8},
		{"river-tag-overlay", 4 + 20},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			buf, _, err := encodeMessage(nil, 1, 0, tt.s)
			require.NoError(t, err)
			assert.Len(t, buf, headerSize+tt.wantSize)
			assert.Equal(t, uint32(len(tt.s)+1), order.Uint32(buf[headerSize:]))

			d := &decoder{data: buf[headerSize:]}
			assert.Equal(t, tt.s, d.String())
			assert.NoError(t, d.err)
			assert.Equal(t, len(buf)-headerSize, d.off)
		})
	}
}

func TestEncodeMessage_Objects(t *testing.T) {
	s := &Surface{proxy: proxy{id: 12}}
	buf, _, err := encodeMessage(nil, 1, 0, s, nil)
	require.NoError(t, err)

	d := &decoder{data: buf[headerSize:]}
	assert.Equal(t, uint32(12), d.Uint32())
	assert.Equal(t, uint32(0), d.Uint32())
}

func TestEncodeMessage_FDsOutOfBand(t *testing.T) {
	buf, fds, err := encodeMessage(nil, 3, 0, uint32(5), FD(42), int32(4096))
	require.NoError(t, err)
	assert.Equal(t, []int{42}, fds)
	assert.Len(t, buf, headerSize+8)
}

func TestEncodeMessage_Unsupported(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	out, _, err := encodeMessage(buf, 1, 0, 3.14)
	assert.Error(t, err)
	assert.Equal(t, buf, out)
}

func TestDecoder_Uint32Array(t *testing.T) {
	buf, _, err := encodeMessage(nil, 1, 0, []byte{1, 0, 0, 0, 0, 1, 0, 0})
	require.NoError(t, err)

	d := &decoder{data: buf[headerSize:]}
	assert.Equal(t, []uint32{1, 1 << 8}, d.Uint32Array())
	assert.NoError(t, d.err)
}

func TestDecoder_Truncated(t *testing.T) {
	d := &decoder{data: []byte{1, 0}}
	assert.Equal(t, uint32(0), d.Uint32())
	assert.ErrorIs(t, d.err, errShortMessage)

	// The error sticks.
	d.data = []byte{1, 0, 0, 0}
	d.off = 0
	assert.Equal(t, uint32(0), d.Uint32())

	d = &decoder{data: []byte{16, 0, 0, 0, 'a'}}
	assert.Equal(t, "", d.String())
	assert.ErrorIs(t, d.err, errShortMessage)
}
