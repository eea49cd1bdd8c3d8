// Package arena provides the growth primitive underneath the allocator: a
// single contiguous byte range with a break that only moves forward.
//
// # Overview
//
// An Arena behaves like the classic sbrk interface:
//
//   - Sbrk(n): advance the break by n bytes, returning the old break
//   - Hi(): the current break (exclusive high-water offset)
//   - Bytes(): the bytes below the break
//
// Offsets are arena-relative. The backing storage never moves, so slices
// handed out before a Sbrk remain valid afterwards.
//
// # Implementations
//
// Mem: heap-backed. Reserves its whole capacity with one make() call and
// reslices on growth.
//
// Mapped: reserves address space with an anonymous PROT_NONE mapping and
// commits pages with mprotect as the break advances (linux, darwin). Other
// platforms fall back to Mem.
//
// # Usage Example
//
//	a, err := arena.NewMapped(64 << 20)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	off, err := a.Sbrk(4096)
//	if errors.Is(err, arena.ErrExhausted) {
//	    // out of address space
//	}
//	page := a.Bytes()[off : off+4096]
//
// # Thread Safety
//
// Arena instances are not thread-safe. The allocator that owns an arena is
// its only writer.
package arena
