// Package format houses the low-level block layout used by the allocator:
// word access, alignment helpers and the boundary-tag codec. Nothing here
// touches allocator state, so every helper can be tested against a plain
// byte slice without a live arena.
package format

const (
	// WordSize is the width of every metadata word (header, footer, link).
	WordSize = 8

	// Alignment is the block and payload alignment unit. Block sizes are
	// always multiples of it, which frees the low bits for flags.
	Alignment = 8

	// AlignmentMask masks the bits below Alignment.
	AlignmentMask = Alignment - 1

	// HeaderSize is the size of the boundary tag at the start of a block.
	HeaderSize = WordSize

	// FooterSize is the size of the boundary tag mirrored at the end of a block.
	FooterSize = WordSize

	// LinkSize is the size of one free-list link (an arena-relative offset).
	LinkSize = WordSize

	// Overhead is the metadata carried by every block, free or allocated.
	Overhead = HeaderSize + FooterSize

	// NextOffset is where a free block stores the offset of its list successor.
	// Layout of a free block:
	//   0x00  header  (size | allocated)
	//   0x08  next    (arena offset)
	//   0x10  prev    (arena offset)
	//   ...   unused
	//   -0x08 footer  (size | allocated)
	NextOffset = HeaderSize

	// PrevOffset is where a free block stores the offset of its list predecessor.
	PrevOffset = HeaderSize + LinkSize

	// MinBlockSize is the smallest block that can hold both tags and both
	// links once it is freed.
	MinBlockSize = (Overhead + 2*LinkSize + AlignmentMask) & ^AlignmentMask

	// AllocatedBit is the tag bit marking a block as in use.
	AllocatedBit = 1

	// SizeMask strips the flag bits from a tag.
	SizeMask = ^uint64(AlignmentMask)
)
