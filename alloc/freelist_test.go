package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/internal/format"
)

// listOffsets walks one class list from its sentinel.
func listOffsets(ta *TagAllocator, sc int) []int {
	mem := ta.Arena().Bytes()
	head := ta.heads[sc]
	var out []int
	for off := format.ReadLink(mem, head+format.NextOffset); off != head; off = format.ReadLink(mem, off+format.NextOffset) {
		out = append(out, off)
	}
	return out
}

func TestFreeList_EmptyListsPointAtThemselves(t *testing.T) {
	ta := newTestAllocator(t, 0, nil)
	mem := ta.Arena().Bytes()
	for sc, head := range ta.heads {
		require.Equal(t, head, format.ReadLink(mem, head+format.NextOffset), "class %d", sc)
		require.Equal(t, head, format.ReadLink(mem, head+format.PrevOffset), "class %d", sc)
		require.Equal(t, format.Pack(format.MinBlockSize, true), format.ReadTag(mem, head))
	}
}

func TestFreeList_PushFrontOrder(t *testing.T) {
	ta := newTestAllocator(t, 0, nil)

	var offs []int
	for range 3 {
		p, _, err := ta.Reserve(40)
		require.NoError(t, err)
		off, _ := blockOf(t, ta, p)
		offs = append(offs, off)
		_, _, err = ta.Reserve(8)
		require.NoError(t, err)
	}
	for _, off := range offs {
		ta.Release(Addr(off + format.HeaderSize))
	}

	sc := ta.sizeTable.classify(56)
	require.Equal(t, []int{offs[2], offs[1], offs[0]}, listOffsets(ta, sc))
	require.Equal(t, 3, ta.ListLengths()[sc])
}

func TestFreeList_UnlinkMiddle(t *testing.T) {
	ta := newTestAllocator(t, 0, nil)

	var ps []Addr
	for range 3 {
		p, _, err := ta.Reserve(40)
		require.NoError(t, err)
		ps = append(ps, p)
		_, _, err = ta.Reserve(8)
		require.NoError(t, err)
	}
	for _, p := range ps {
		ta.Release(p)
	}

	sc := ta.sizeTable.classify(56)
	mid, _ := blockOf(t, ta, ps[1])
	ta.unlink(asNode(block{ta.Arena().Bytes(), mid}))

	first, _ := blockOf(t, ta, ps[2])
	last, _ := blockOf(t, ta, ps[0])
	require.Equal(t, []int{first, last}, listOffsets(ta, sc))
	require.Equal(t, 2, ta.ListLengths()[sc])

	// Put it back so the heap is consistent again.
	ta.pushFront(asNode(block{ta.Arena().Bytes(), mid}))
	require.NoError(t, ta.Check())
}

func TestFreeList_SplitRemainderMovesClass(t *testing.T) {
	ta := newTestAllocator(t, 0, nil)

	p, _, err := ta.Reserve(2000) // 2016-byte block, class 7
	require.NoError(t, err)
	_, _, err = ta.Reserve(8)
	require.NoError(t, err)
	ta.Release(p)
	require.Equal(t, 1, ta.ListLengths()[7])

	_, _, err = ta.Reserve(1000) // 1016 taken, 1000 left: class 6
	require.NoError(t, err)
	lengths := ta.ListLengths()
	require.Equal(t, 0, lengths[7])
	require.Equal(t, 1, lengths[6])
	require.NoError(t, ta.Check())
}
