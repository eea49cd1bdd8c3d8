package format

import "fmt"

// Tag is a boundary tag: a block size with the allocated flag folded into
// the low bit. The same word is written as header and footer.
type Tag uint64

// Pack encodes size and the allocated flag into a tag. size must already be
// a multiple of Alignment; stray low bits are dropped.
func Pack(size int, allocated bool) Tag {
	t := Tag(uint64(size) & SizeMask)
	if allocated {
		t |= AllocatedBit
	}
	return t
}

// Unpack decodes a raw word into its size and allocated flag.
func Unpack(word uint64) (size int, allocated bool) {
	t := Tag(word)
	return t.Size(), t.Allocated()
}

// Size returns the block size recorded in the tag.
func (t Tag) Size() int {
	return int(uint64(t) & SizeMask)
}

// Allocated reports whether the tag marks an in-use block.
func (t Tag) Allocated() bool {
	return t&AllocatedBit != 0
}

func (t Tag) String() string {
	state := "free"
	if t.Allocated() {
		state = "alloc"
	}
	return fmt.Sprintf("%d/%s", t.Size(), state)
}

// ReadTag reads the tag stored at off.
func ReadTag(b []byte, off int) Tag {
	return Tag(ReadWord(b, off))
}

// PutTag writes t at off.
func PutTag(b []byte, off int, t Tag) {
	PutWord(b, off, uint64(t))
}

// FooterOffset returns the footer position of a block starting at off.
func FooterOffset(off, size int) int {
	return off + size - FooterSize
}

// PutTags writes t as both header and footer of the block at off.
func PutTags(b []byte, off int, t Tag) {
	PutTag(b, off, t)
	PutTag(b, FooterOffset(off, t.Size()), t)
}
