package canvas

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SharedMemory is an anonymous memory file mapped into the process.
// The file descriptor is handed to the display server, which maps the same pages.
type SharedMemory struct {
	Fd  int
	Pix []byte
}

// NewSharedMemory creates a memfd of the given size and maps it read-write.
func NewSharedMemory(name string, size int) (*SharedMemory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, size)
	}

	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ftruncate: %w", err)
	}

	// The buffer never grows, so forbid shrinking it under the compositor.
	_, _ = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK|unix.F_SEAL_SEAL)

	pix, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &SharedMemory{Fd: fd, Pix: pix}, nil
}

// CloseFd closes the file descriptor, leaving the mapping intact.
func (m *SharedMemory) CloseFd() error {
	if m.Fd < 0 {
		return nil
	}
	err := unix.Close(m.Fd)
	m.Fd = -1
	return err
}

// Unmap unmaps the memory and closes the descriptor if still open.
func (m *SharedMemory) Unmap() error {
	var err error
	if m.Pix != nil {
		err = unix.Munmap(m.Pix)
		m.Pix = nil
	}
	if cerr := m.CloseFd(); err == nil {
		err = cerr
	}
	return err
}
