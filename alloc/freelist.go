package alloc

import "github.com/joshuapare/arenakit/internal/format"

// Free lists are intrusive circular doubly-linked lists threaded through
// free blocks. Each class is anchored at a sentinel: a minimum-size
// allocated block carved at Init whose links are always valid, so an
// empty list is a sentinel pointing at itself and neither push nor
// unlink has special cases.

// carveSentinels formats one sentinel per class starting at base.
func (ta *TagAllocator) carveSentinels(mem []byte, base int) {
	for i := range ta.heads {
		off := base + i*minBlockSize
		s := asNode(block{mem, off})
		s.setTags(minBlockSize, true)
		s.setNext(off)
		s.setPrev(off)
		ta.heads[i] = off
		ta.counts[i] = 0
	}
}

// pushFront inserts a free block right after its class sentinel.
func (ta *TagAllocator) pushFront(n node) {
	sc := ta.sizeTable.classify(n.size())
	head := n.at(ta.heads[sc])
	first := n.at(head.next())

	n.setNext(first.off)
	n.setPrev(head.off)
	first.setPrev(n.off)
	head.setNext(n.off)

	ta.counts[sc]++
}

// unlink removes a free block from whichever list holds it, using only
// its own links.
func (ta *TagAllocator) unlink(n node) {
	prev := n.at(n.prev())
	next := n.at(n.next())
	prev.setNext(next.off)
	next.setPrev(prev.off)

	ta.counts[ta.sizeTable.classify(n.size())]--
}

// findFit scans classes upward from the class of needed. Within a class it
// takes the first block, front to back, that is large enough.
func (ta *TagAllocator) findFit(mem []byte, needed int) (node, bool) {
	for sc := ta.sizeTable.classify(needed); sc < len(ta.heads); sc++ {
		if ta.counts[sc] == 0 {
			continue
		}
		head := ta.heads[sc]
		for off := format.ReadLink(mem, head+format.NextOffset); off != head; {
			n := asNode(block{mem, off})
			if n.size() >= needed {
				return n, true
			}
			off = n.next()
		}
	}
	return node{}, false
}

// ListLengths returns the number of free blocks on each class list.
func (ta *TagAllocator) ListLengths() []int {
	return append([]int(nil), ta.counts...)
}
