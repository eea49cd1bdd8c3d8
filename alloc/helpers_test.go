package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/format"
)

// newTestAllocator creates a TagAllocator over a fresh heap arena.
func newTestAllocator(t testing.TB, maxSize int, opts *Options) *TagAllocator {
	t.Helper()
	ta, err := New(arena.NewMem(maxSize), opts)
	require.NoError(t, err)
	return ta
}

// blockOf returns the header offset and size of the block behind p.
func blockOf(t testing.TB, ta *TagAllocator, p Addr) (int, int) {
	t.Helper()
	off := int(p) - format.HeaderSize
	return off, format.ReadTag(ta.Arena().Bytes(), off).Size()
}

// blocks returns every block after the sentinels.
func blocks(ta *TagAllocator) []Block {
	var out []Block
	ta.Walk(func(b Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func requireFilled(t testing.TB, b []byte, seed byte) {
	t.Helper()
	for i := range b {
		require.Equal(t, seed+byte(i), b[i], "byte %d", i)
	}
}

// recoverErr runs f and returns the error it panicked with, if any.
func recoverErr(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	f()
	return nil
}
