package alloc

import "github.com/joshuapare/arenakit/internal/format"

const (
	headerSize   = format.HeaderSize
	minBlockSize = format.MinBlockSize
)

// block is a view of the block whose header sits at off. Views are cheap
// values over the arena bytes; take a fresh one after the arena grows.
type block struct {
	mem []byte
	off int
}

func (b block) tag() format.Tag    { return format.ReadTag(b.mem, b.off) }
func (b block) footer() format.Tag { return format.ReadTag(b.mem, format.FooterOffset(b.off, b.size())) }
func (b block) size() int          { return b.tag().Size() }
func (b block) allocated() bool    { return b.tag().Allocated() }
func (b block) end() int           { return b.off + b.size() }
func (b block) addr() Addr         { return Addr(b.off + headerSize) }

// setTags writes header and footer.
func (b block) setTags(size int, allocated bool) {
	format.PutTags(b.mem, b.off, format.Pack(size, allocated))
}

// node is a block whose link words are valid: a free block or a sentinel.
type node struct {
	block
}

func (n node) next() int { return format.ReadLink(n.mem, n.off+format.NextOffset) }
func (n node) prev() int { return format.ReadLink(n.mem, n.off+format.PrevOffset) }

func (n node) setNext(off int) { format.PutLink(n.mem, n.off+format.NextOffset, off) }
func (n node) setPrev(off int) { format.PutLink(n.mem, n.off+format.PrevOffset, off) }

// at returns the node at off in the same arena.
func (n node) at(off int) node { return node{block{n.mem, off}} }

// usedBlock is an allocated block handed to a caller.
type usedBlock struct {
	block
}

// usable returns the payload bytes the caller may touch.
func (u usedBlock) usable() int { return format.PayloadSize(u.size()) }

// payload returns a slice of length n over the payload whose capacity is
// the full usable size.
func (u usedBlock) payload(n int) []byte {
	start := u.off + headerSize
	return u.mem[start : start+n : start+u.usable()]
}

// asNode views b as a list node. Only valid for free blocks and sentinels.
func asNode(b block) node { return node{b} }

// asUsed views b as an allocated block.
func asUsed(b block) usedBlock { return usedBlock{b} }
