package trace

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
)

func loadTrace(t *testing.T, name string) *Trace {
	t.Helper()
	tr, err := ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return tr
}

func newTag(t *testing.T, maxSize int) *alloc.TagAllocator {
	t.Helper()
	ta, err := alloc.New(arena.NewMem(maxSize), nil)
	require.NoError(t, err)
	return ta
}

func TestReplay_TagAllocator(t *testing.T) {
	for _, name := range []string{"short1.rep", "short2.rep"} {
		t.Run(name, func(t *testing.T) {
			tr := loadTrace(t, name)
			ta := newTag(t, 0)

			res, err := Replay(context.Background(), ta, tr, ReplayOptions{Validate: true, Check: true})
			require.NoError(t, err)
			require.True(t, res.OK())
			require.Equal(t, len(tr.Ops), res.Ops)
			require.Equal(t, name, res.Trace)
			require.Positive(t, res.PeakLive)
			require.Equal(t, ta.Arena().Hi(), res.ArenaBytes)
			require.Greater(t, res.Utilization, 0.0)
			require.LessOrEqual(t, res.Utilization, 1.0)

			u := ta.Usage()
			require.Zero(t, u.LiveBlocks, "trace frees everything")
		})
	}
}

func TestReplay_Short1PeakLive(t *testing.T) {
	res, err := Replay(context.Background(), newTag(t, 0), loadTrace(t, "short1.rep"), ReplayOptions{Validate: true})
	require.NoError(t, err)
	// ids 4 and 5 are live together after "a 5".
	require.Equal(t, 2*4072, res.PeakLive)
}

func TestReplay_BumpUsesMoreArena(t *testing.T) {
	tr, err := Generate(GenConfig{Seed: 3, Allocs: 400, MaxSize: 1024, ReallocRatio: 0.1})
	require.NoError(t, err)

	tag, err := Replay(context.Background(), newTag(t, 0), tr, ReplayOptions{Validate: true, Check: true})
	require.NoError(t, err)

	ba, err := alloc.NewBump(arena.NewMem(64 << 20))
	require.NoError(t, err)
	bump, err := Replay(context.Background(), ba, tr, ReplayOptions{Validate: true, Check: true})
	require.NoError(t, err)

	require.Equal(t, tag.PeakLive, bump.PeakLive)
	require.Greater(t, bump.ArenaBytes, tag.ArenaBytes)
	require.Less(t, bump.Utilization, tag.Utilization)
}

// overlapping hands out the first block again on the second reserve.
type overlapping struct {
	*alloc.TagAllocator
	calls int
	first alloc.Addr
}

func (o *overlapping) Reserve(n int) (alloc.Addr, []byte, error) {
	o.calls++
	p, payload, err := o.TagAllocator.Reserve(n)
	if o.calls == 1 {
		o.first = p
	}
	if o.calls == 2 {
		return o.first, o.Payload(o.first)[:min(n, len(o.Payload(o.first)))], nil
	}
	return p, payload, err
}

// misaligned shifts every payload by 4 bytes.
type misaligned struct {
	*alloc.TagAllocator
}

func (m *misaligned) Reserve(n int) (alloc.Addr, []byte, error) {
	p, payload, err := m.TagAllocator.Reserve(n + 8)
	if err != nil {
		return p, payload, err
	}
	return p + 4, payload[4 : 4+n], nil
}

// scribbler overwrites the first payload during the second reserve.
type scribbler struct {
	*alloc.TagAllocator
	calls int
	first []byte
}

func (s *scribbler) Reserve(n int) (alloc.Addr, []byte, error) {
	s.calls++
	p, payload, err := s.TagAllocator.Reserve(n)
	switch s.calls {
	case 1:
		s.first = payload
	case 2:
		s.first[0] ^= 0xFF
	}
	return p, payload, err
}

// shortchanger returns one byte less than requested.
type shortchanger struct {
	*alloc.TagAllocator
}

func (s *shortchanger) Reserve(n int) (alloc.Addr, []byte, error) {
	p, payload, err := s.TagAllocator.Reserve(n)
	if err != nil {
		return p, payload, err
	}
	return p, payload[:n-1], nil
}

func TestReplay_DetectsBrokenAllocators(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(*alloc.TagAllocator) alloc.Allocator
		want  error
		index int
	}{
		{"overlap", func(ta *alloc.TagAllocator) alloc.Allocator { return &overlapping{TagAllocator: ta} }, ErrOverlap, 1},
		{"misaligned", func(ta *alloc.TagAllocator) alloc.Allocator { return &misaligned{ta} }, ErrMisaligned, 0},
		{"clobbered", func(ta *alloc.TagAllocator) alloc.Allocator { return &scribbler{TagAllocator: ta} }, ErrPayloadCorrupted, 7},
		{"short", func(ta *alloc.TagAllocator) alloc.Allocator { return &shortchanger{ta} }, ErrShortPayload, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.wrap(newTag(t, 0))
			_, err := Replay(context.Background(), a, loadTrace(t, "short1.rep"), ReplayOptions{Validate: true})
			require.ErrorIs(t, err, tt.want)

			var rerr *ReplayError
			require.True(t, errors.As(err, &rerr))
			require.Equal(t, tt.index, rerr.Index)
			require.Equal(t, "short1.rep", rerr.Trace)
		})
	}
}

func TestReplay_ResizeLosingPrefix(t *testing.T) {
	tr := &Trace{Name: "grow", NumIDs: 1, Ops: []Op{
		{Kind: OpAlloc, ID: 0, Size: 64},
		{Kind: OpRealloc, ID: 0, Size: 256},
		{Kind: OpFree, ID: 0},
	}}
	a := &forgetful{TagAllocator: newTag(t, 0)}
	_, err := Replay(context.Background(), a, tr, ReplayOptions{Validate: true})
	require.ErrorIs(t, err, ErrPayloadCorrupted)
	require.Contains(t, err.Error(), "lost its first 64 bytes")
}

// forgetful resizes without copying.
type forgetful struct {
	*alloc.TagAllocator
}

func (f *forgetful) Resize(p alloc.Addr, n int) (alloc.Addr, []byte, error) {
	q, payload, err := f.Reserve(n)
	if err != nil {
		return q, payload, err
	}
	f.Release(p)
	return q, payload, nil
}

func TestReplay_OutOfMemory(t *testing.T) {
	tr := &Trace{Name: "big", NumIDs: 1, Ops: []Op{{Kind: OpAlloc, ID: 0, Size: 1 << 20}, {Kind: OpFree, ID: 0}}}
	_, err := Replay(context.Background(), newTag(t, 4096), tr, ReplayOptions{})
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
}

func TestReplay_InvalidOps(t *testing.T) {
	tr := &Trace{Name: "bad", NumIDs: 2, Ops: []Op{{Kind: OpFree, ID: 1}}}
	_, err := Replay(context.Background(), newTag(t, 0), tr, ReplayOptions{})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Replay(ctx, newTag(t, 0), loadTrace(t, "short1.rep"), ReplayOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Ops)
}

func TestReplay_ReallocToZero(t *testing.T) {
	tr := &Trace{Name: "zero", NumIDs: 1, Ops: []Op{
		{Kind: OpAlloc, ID: 0, Size: 64},
		{Kind: OpRealloc, ID: 0, Size: 0},
		{Kind: OpAlloc, ID: 0, Size: 32},
		{Kind: OpFree, ID: 0},
	}}
	require.NoError(t, tr.Validate())
	ta := newTag(t, 0)
	_, err := Replay(context.Background(), ta, tr, ReplayOptions{Validate: true, Check: true})
	require.NoError(t, err)
	require.Zero(t, ta.Usage().LiveBlocks)
}
