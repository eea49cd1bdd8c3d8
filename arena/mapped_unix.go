//go:build linux || darwin

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mapped is an Arena backed by an anonymous memory mapping. The whole
// capacity is reserved up front as PROT_NONE; pages become readable and
// writable only once the break reaches them.
type Mapped struct {
	data      []byte // full reservation
	brk       int
	committed int // bytes made PROT_READ|PROT_WRITE, page aligned
	pageSize  int
}

// NewMapped reserves maxSize bytes of address space (rounded up to whole
// pages). maxSize <= 0 selects DefaultMaxSize.
func NewMapped(maxSize int) (*Mapped, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	pageSize := unix.Getpagesize()
	maxSize = alignUp(maxSize, pageSize)

	data, err := unix.Mmap(-1, 0, maxSize, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", maxSize, err)
	}
	return &Mapped{data: data, pageSize: pageSize}, nil
}

// Sbrk implements Arena.
func (m *Mapped) Sbrk(delta int) (int, error) {
	if m.data == nil {
		return 0, ErrClosed
	}
	if delta < 0 {
		return 0, ErrBadDelta
	}
	old := m.brk
	if delta > len(m.data)-old {
		return 0, fmt.Errorf("%w: break=%d delta=%d cap=%d", ErrExhausted, old, delta, len(m.data))
	}

	want := alignUp(old+delta, m.pageSize)
	if want > m.committed {
		if err := unix.Mprotect(m.data[m.committed:want], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("arena: commit [%d, %d): %w", m.committed, want, err)
		}
		m.committed = want
	}

	m.brk = old + delta
	return old, nil
}

// Hi implements Arena.
func (m *Mapped) Hi() int { return m.brk }

// Bytes implements Arena.
func (m *Mapped) Bytes() []byte { return m.data[:m.brk:m.brk] }

// Cap implements Arena.
func (m *Mapped) Cap() int { return len(m.data) }

// Committed returns how many bytes are currently backed by accessible pages.
func (m *Mapped) Committed() int { return m.committed }

// Close unmaps the reservation. Calling Close twice is a no-op.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	m.brk, m.committed = 0, 0
	return err
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}

var _ Arena = (*Mapped)(nil)
