package alloc

import "github.com/joshuapare/arenakit/arena"

// Addr is a payload address: an offset into the arena, 8 bytes past the
// block header. Nil (zero) never names a payload because the sentinels
// occupy the start of every heap.
type Addr int

// Nil is the address returned when nothing was allocated.
const Nil Addr = 0

// Allocator defines the interface shared by every allocator in this package.
//
// Implementations:
//   - TagAllocator: boundary tags, segregated free lists, immediate coalescing
//   - BumpAllocator: grows the arena on every reserve and never reuses space
//
// Payload slices alias arena memory. They stay valid until the block is
// released or resized; growing the arena does not move them.
type Allocator interface {
	// Reserve allocates a block with at least n usable payload bytes.
	// Returns the payload address, a slice of length n over the payload
	// (its capacity is the full usable size), and any error.
	Reserve(n int) (Addr, []byte, error)

	// Release returns a block to the allocator. Nil and unknown addresses
	// are ignored.
	Release(p Addr)

	// Resize moves the payload at p into a block of n bytes, preserving
	// the first min(old, n) bytes.
	Resize(p Addr, n int) (Addr, []byte, error)

	// Payload returns the full usable payload of a live block, or nil.
	Payload(p Addr) []byte

	// Arena returns the arena the allocator manages.
	Arena() arena.Arena
}

// Checker is implemented by allocators that can validate their own heap.
type Checker interface {
	Check() error
}

// Block describes one block seen by Walk.
type Block struct {
	Offset    int  // Arena offset of the header
	Size      int  // Total size including both tags
	Allocated bool // In use by a caller
}

// Payload returns the payload address of the block.
func (b Block) Payload() Addr {
	return Addr(b.Offset + headerSize)
}

// Usage summarizes the heap by walking it.
type Usage struct {
	ArenaBytes    int // Arena break (total footprint)
	OverheadBytes int // Sentinels plus anything before them
	LiveBlocks    int // Allocated blocks
	LiveBytes     int // Bytes in allocated blocks, tags included
	FreeBlocks    int // Free blocks
	FreeBytes     int // Bytes in free blocks, tags included
	LargestFree   int // Size of the largest free block
}
