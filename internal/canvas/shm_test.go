package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSharedMemory(t *testing.T) {
	m, err := NewSharedMemory("canvas-test", 4096)
	require.NoError(t, err)
	defer m.Unmap()

	require.Len(t, m.Pix, 4096)
	m.Pix[100] = 0xab

	// A second mapping of the same descriptor sees the write.
	other, err := unix.Mmap(m.Fd, 0, 4096, unix.PROT_READ, unix.MAP_SHARED)
	require.NoError(t, err)
	defer unix.Munmap(other)
	assert.Equal(t, byte(0xab), other[100])

	var st unix.Stat_t
	require.NoError(t, unix.Fstat(m.Fd, &st))
	assert.Equal(t, int64(4096), st.Size)

	require.NoError(t, m.CloseFd())
	assert.Equal(t, -1, m.Fd)
	require.NoError(t, m.Unmap())
	require.NoError(t, m.Unmap())
}

func TestSharedMemory_InvalidSize(t *testing.T) {
	_, err := NewSharedMemory("canvas-test", 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
