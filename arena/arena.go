package arena

import (
	"errors"
	"fmt"
)

// DefaultMaxSize is the default capacity of a new arena (20 MiB, the
// malloc-lab MAX_HEAP).
const DefaultMaxSize = 20 << 20

var (
	// ErrExhausted indicates that growing would exceed the arena capacity.
	ErrExhausted = errors.New("arena: address space exhausted")

	// ErrBadDelta indicates a negative growth request. Arenas never shrink.
	ErrBadDelta = errors.New("arena: negative growth")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("arena: closed")
)

// Arena is a growable linear address range.
type Arena interface {
	// Sbrk extends the arena by delta bytes and returns the offset where the
	// new region starts (the previous break). The new bytes are zeroed.
	Sbrk(delta int) (int, error)

	// Hi returns the current break: every valid offset is below it.
	Hi() int

	// Bytes returns the arena contents below the break.
	Bytes() []byte

	// Cap returns the most bytes the arena can ever hold.
	Cap() int

	// Close releases the backing storage. Slices obtained from Bytes must
	// not be used afterwards.
	Close() error
}

// Mem is a heap-backed Arena.
type Mem struct {
	data   []byte // len == break, cap == capacity
	closed bool
}

// NewMem creates a heap-backed arena able to grow to maxSize bytes.
// maxSize <= 0 selects DefaultMaxSize.
func NewMem(maxSize int) *Mem {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Mem{data: make([]byte, 0, maxSize)}
}

// Sbrk implements Arena.
func (m *Mem) Sbrk(delta int) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if delta < 0 {
		return 0, ErrBadDelta
	}
	old := len(m.data)
	if delta > cap(m.data)-old {
		return 0, fmt.Errorf("%w: break=%d delta=%d cap=%d", ErrExhausted, old, delta, cap(m.data))
	}
	m.data = m.data[:old+delta]
	return old, nil
}

// Hi implements Arena.
func (m *Mem) Hi() int { return len(m.data) }

// Bytes implements Arena.
func (m *Mem) Bytes() []byte { return m.data }

// Cap implements Arena.
func (m *Mem) Cap() int { return cap(m.data) }

// Close implements Arena.
func (m *Mem) Close() error {
	m.data = nil
	m.closed = true
	return nil
}

var _ Arena = (*Mem)(nil)
