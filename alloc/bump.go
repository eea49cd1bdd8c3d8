package alloc

import (
	"fmt"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
)

// BumpAllocator is the naive reference allocator. Every Reserve grows the
// arena by exactly one block; Release only clears the allocated bit and
// never reuses space; Resize is reserve + copy + release.
//
// Key characteristics:
//   - O(1) reserve and release, no free lists, no coalescing
//   - Blocks carry the same boundary tags as TagAllocator, so the same
//     validators and walkers apply
//   - Utilization degrades with every release; useful as a baseline in
//     trace reports
type BumpAllocator struct {
	a arena.Arena

	// start is the offset of the first block this allocator handed out.
	start int

	stats Stats
}

var _ Allocator = (*BumpAllocator)(nil)

// NewBump creates a BumpAllocator that appends blocks at the current
// break of a.
func NewBump(a arena.Arena) (*BumpAllocator, error) {
	hi := a.Hi()
	if pad := format.Align(hi) - hi; pad > 0 {
		if _, err := a.Sbrk(pad); err != nil {
			return nil, fmt.Errorf("%w: aligning break: %w", ErrOutOfMemory, err)
		}
	}
	return &BumpAllocator{a: a, start: a.Hi()}, nil
}

// Reserve appends a new block holding at least n payload bytes.
func (ba *BumpAllocator) Reserve(n int) (Addr, []byte, error) {
	ba.stats.ReserveCalls++
	if n <= 0 {
		ba.stats.ReserveFailed++
		return Nil, nil, fmt.Errorf("%w: %d", ErrZeroSize, n)
	}
	needed, ok := format.BlockSize(n)
	if !ok {
		ba.stats.ReserveFailed++
		return Nil, nil, fmt.Errorf("%w: request of %d bytes overflows", ErrOutOfMemory, n)
	}

	off, err := ba.a.Sbrk(needed)
	if err != nil {
		ba.stats.ReserveFailed++
		return Nil, nil, fmt.Errorf("%w: reserve %d bytes: %w", ErrOutOfMemory, n, err)
	}
	ba.stats.ReserveSlowPath++
	ba.stats.GrowCalls++
	ba.stats.GrowBytes += int64(needed)
	ba.stats.BytesReserved += int64(needed)

	b := block{ba.a.Bytes(), off}
	b.setTags(needed, true)
	return b.addr(), asUsed(b).payload(n), nil
}

// Release marks the block at p free. The space is never reused.
func (ba *BumpAllocator) Release(p Addr) {
	ba.stats.ReleaseCalls++
	if p == Nil {
		return
	}
	b, ok := ba.blockAt(p)
	if !ok {
		ba.stats.InvalidReleases++
		return
	}
	if !b.allocated() {
		ba.stats.DoubleFrees++
		return
	}
	ba.stats.BytesReleased += int64(b.size())
	b.setTags(b.size(), false)
}

// Resize copies the payload at p into a freshly appended block.
func (ba *BumpAllocator) Resize(p Addr, n int) (Addr, []byte, error) {
	ba.stats.ResizeCalls++
	if p == Nil {
		return ba.Reserve(n)
	}
	old, ok := ba.blockAt(p)
	if !ok || !old.allocated() {
		return Nil, nil, fmt.Errorf("%w: resize of 0x%X", ErrBadAddr, int(p))
	}
	if n == 0 {
		ba.Release(p)
		return Nil, nil, nil
	}
	oldUsable := asUsed(old).usable()

	np, payload, err := ba.Reserve(n)
	if err != nil {
		return Nil, nil, err
	}
	mem := ba.a.Bytes()
	copy(payload, mem[int(p):int(p)+min(oldUsable, n)])
	ba.Release(p)
	return np, payload, nil
}

// Payload returns the full usable payload of a live block, or nil.
func (ba *BumpAllocator) Payload(p Addr) []byte {
	b, ok := ba.blockAt(p)
	if !ok || !b.allocated() {
		return nil
	}
	u := asUsed(b)
	return u.payload(u.usable())
}

// Arena returns the arena the allocator appends to.
func (ba *BumpAllocator) Arena() arena.Arena { return ba.a }

// Stats returns a copy of the allocator counters.
func (ba *BumpAllocator) Stats() Stats { return ba.stats }

// Check validates the tags of every block appended so far.
func (ba *BumpAllocator) Check() error {
	mem := ba.a.Bytes()
	for off := ba.start; off < len(mem); {
		b := block{mem, off}
		if !buf.Has(mem, off, minBlockSize) || b.size() < minBlockSize || !buf.Has(mem, off, b.size()) {
			return fmt.Errorf("%w: bad block at 0x%X", ErrCorrupt, off)
		}
		if b.footer() != b.tag() {
			return fmt.Errorf("%w: header/footer mismatch at 0x%X", ErrCorrupt, off)
		}
		off += b.size()
	}
	return nil
}

func (ba *BumpAllocator) blockAt(p Addr) (block, bool) {
	mem := ba.a.Bytes()
	off := int(p) - headerSize
	if p == Nil || !format.IsAligned(int(p)) || off < ba.start || !buf.Has(mem, off, minBlockSize) {
		return block{}, false
	}
	b := block{mem, off}
	if b.size() < minBlockSize || !buf.Has(mem, off, b.size()) || b.footer() != b.tag() {
		return block{}, false
	}
	return b, true
}
