package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena"
)

func newTestBump(t testing.TB, maxSize int) *BumpAllocator {
	t.Helper()
	ba, err := NewBump(arena.NewMem(maxSize))
	require.NoError(t, err)
	return ba
}

func TestBump_GrowsOnEveryReserve(t *testing.T) {
	ba := newTestBump(t, 0)

	p, payload, err := ba.Reserve(100)
	require.NoError(t, err)
	require.Equal(t, Addr(8), p)
	require.Len(t, payload, 100)
	require.Equal(t, 104, cap(payload))
	require.Equal(t, 120, ba.Arena().Hi())

	ba.Release(p)
	q, _, err := ba.Reserve(100)
	require.NoError(t, err)
	require.NotEqual(t, p, q, "bump allocator never reuses")
	require.Equal(t, 240, ba.Arena().Hi())

	s := ba.Stats()
	require.Equal(t, 2, s.GrowCalls)
	require.Equal(t, 2, s.ReserveSlowPath)
	require.NoError(t, ba.Check())
}

func TestBump_ReleaseMisuse(t *testing.T) {
	ba := newTestBump(t, 0)
	p, _, err := ba.Reserve(8)
	require.NoError(t, err)

	ba.Release(Nil)
	ba.Release(p + 4)
	ba.Release(p)
	ba.Release(p)

	s := ba.Stats()
	require.Equal(t, 1, s.InvalidReleases)
	require.Equal(t, 1, s.DoubleFrees)
	require.Nil(t, ba.Payload(p))
}

func TestBump_Resize(t *testing.T) {
	ba := newTestBump(t, 0)

	p, payload, err := ba.Reserve(50)
	require.NoError(t, err)
	fill(payload, 3)

	q, payload, err := ba.Resize(p, 500)
	require.NoError(t, err)
	requireFilled(t, payload[:50], 3)
	require.Nil(t, ba.Payload(p))

	r, _, err := ba.Resize(q, 0)
	require.NoError(t, err)
	require.Equal(t, Nil, r)

	_, _, err = ba.Resize(q, 10)
	require.ErrorIs(t, err, ErrBadAddr)
}

func TestBump_ZeroAndExhausted(t *testing.T) {
	ba := newTestBump(t, 256)

	_, _, err := ba.Reserve(0)
	require.ErrorIs(t, err, ErrZeroSize)

	_, _, err = ba.Reserve(512)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, arena.ErrExhausted)
	require.Zero(t, ba.Arena().Hi())
}

func TestBump_AlignsExistingBreak(t *testing.T) {
	a := arena.NewMem(0)
	_, err := a.Sbrk(3)
	require.NoError(t, err)

	ba, err := NewBump(a)
	require.NoError(t, err)
	p, _, err := ba.Reserve(8)
	require.NoError(t, err)
	require.Equal(t, Addr(16), p)
	require.NoError(t, ba.Check())
}
