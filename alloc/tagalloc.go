package alloc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/verify"
)

// Options configures a TagAllocator. The zero value is ready to use.
type Options struct {
	// SizeClasses selects the free-list ladder (nil for DefaultConfig).
	SizeClasses *SizeClassConfig

	// Checked verifies header == footer on every block touched by Reserve
	// and Release, and panics with an error wrapping ErrCorrupt on mismatch.
	Checked bool

	// Trace logs every operation at debug level through the global logger.
	// It is implied when the logger already emits debug records, as it does
	// with ARENAKIT_LOG_ALLOC set or arenactl --verbose.
	Trace bool

	// OnGrow is called with each arena growth delta (test hook, nil in production).
	OnGrow func(delta int)
}

// Stats holds allocator counters.
type Stats struct {
	ReserveCalls    int   // Total Reserve() calls
	ReserveFastPath int   // Reserves served from a free list
	ReserveSlowPath int   // Reserves that grew the arena
	ReserveFailed   int   // Reserves that returned an error
	ReleaseCalls    int   // Total Release() calls
	ResizeCalls     int   // Total Resize() calls
	GrowCalls       int   // Number of arena growths
	GrowBytes       int64 // Total bytes added to the arena
	BytesReserved   int64 // Total block bytes handed out (tags included)
	BytesReleased   int64 // Total block bytes returned (tags included)
	SplitCount      int   // Blocks split on reserve
	CoalesceFront   int   // Merges with the preceding block
	CoalesceBack    int   // Merges with the following block
	DoubleFrees     int   // Releases of a block that was already free
	InvalidReleases int   // Releases of addresses that name no block
}

// TagAllocator is a boundary-tag allocator with segregated free lists.
//   - Every block carries identical header and footer tags, so the
//     neighbour in either direction is found in O(1)
//   - Free blocks sit on one circular list per size class, anchored at
//     in-arena sentinels
//   - Release coalesces immediately, so no two free blocks are adjacent
//
// A TagAllocator is not safe for concurrent use.
type TagAllocator struct {
	a arena.Arena

	// Size class configuration and lookup table
	sizeTable *sizeClassTable

	// Sentinel offset and list length per class
	heads  []int
	counts []int

	base  int // Offset of the first sentinel
	start int // Offset of the first block after the sentinels
	ready bool

	checked bool
	trace   bool

	// Statistics for testing and instrumentation
	stats Stats

	// Test hook: called after each arena growth (nil in production)
	onGrow func(int)
}

var _ Allocator = (*TagAllocator)(nil)

// New creates a TagAllocator over a and initializes it.
//
// Parameters:
//   - a: The arena to allocate from. It is grown, never shrunk.
//   - opts: Allocator options (nil for defaults)
func New(a arena.Arena, opts *Options) (*TagAllocator, error) {
	if opts == nil {
		opts = &Options{}
	}
	config := opts.SizeClasses
	if config == nil {
		config = &DefaultConfig
	}

	sizeTable, err := newSizeClassTable(*config)
	if err != nil {
		return nil, err
	}

	ta := &TagAllocator{
		a:         a,
		sizeTable: sizeTable,
		heads:     make([]int, sizeTable.NumClasses()),
		counts:    make([]int, sizeTable.NumClasses()),
		checked:   opts.Checked,
		trace:     opts.Trace || logger.Enabled(slog.LevelDebug),
		onGrow:    opts.OnGrow,
	}
	if err := ta.Init(); err != nil {
		return nil, err
	}
	return ta, nil
}

// Init carves a fresh set of sentinels at the current break and resets the
// counters. Blocks handed out before Init are abandoned: their addresses
// are no longer recognized.
func (ta *TagAllocator) Init() error {
	ta.ready = false
	ta.stats = Stats{}

	hi := ta.a.Hi()
	pad := format.Align(hi) - hi
	delta := pad + len(ta.heads)*minBlockSize

	old, err := ta.a.Sbrk(delta)
	if err != nil {
		return fmt.Errorf("%w: carving %d sentinels: %w", ErrOutOfMemory, len(ta.heads), err)
	}
	ta.noteGrow(delta)

	ta.base = old + pad
	ta.start = ta.base + len(ta.heads)*minBlockSize
	ta.carveSentinels(ta.a.Bytes(), ta.base)
	ta.ready = true

	if ta.trace {
		logger.Debug("alloc init",
			"classes", len(ta.heads), "config", ta.sizeTable.String(),
			"base", ta.base, "start", ta.start)
	}
	return nil
}

// Reserve allocates a block whose payload holds at least n bytes.
func (ta *TagAllocator) Reserve(n int) (Addr, []byte, error) {
	if !ta.ready {
		return Nil, nil, ErrNotInitialized
	}
	ta.stats.ReserveCalls++
	p, payload, err := ta.reserve(n)
	if err != nil {
		ta.stats.ReserveFailed++
	}
	return p, payload, err
}

func (ta *TagAllocator) reserve(n int) (Addr, []byte, error) {
	if n <= 0 {
		return Nil, nil, fmt.Errorf("%w: %d", ErrZeroSize, n)
	}
	needed, ok := format.BlockSize(n)
	if !ok {
		return Nil, nil, fmt.Errorf("%w: request of %d bytes overflows", ErrOutOfMemory, n)
	}

	mem := ta.a.Bytes()
	var b block

	if fit, found := ta.findFit(mem, needed); found {
		ta.stats.ReserveFastPath++
		if ta.checked {
			ta.mustCheck(mem, fit.off)
		}
		ta.unlink(fit)
		b = ta.place(fit.block, needed)
	} else {
		off, err := ta.a.Sbrk(needed)
		if err != nil {
			if ta.trace {
				logger.Debug("alloc grow failed", "need", needed, "hi", ta.a.Hi(), "err", err)
			}
			return Nil, nil, fmt.Errorf("%w: reserve %d bytes: %w", ErrOutOfMemory, n, err)
		}
		ta.stats.ReserveSlowPath++
		ta.noteGrow(needed)

		mem = ta.a.Bytes()
		b = block{mem, off}
		b.setTags(needed, true)
	}

	ta.stats.BytesReserved += int64(b.size())
	if ta.trace {
		logger.Debug("alloc reserve", "n", n, "block", b.off, "size", b.size())
	}
	return b.addr(), asUsed(b).payload(n), nil
}

// place marks the head of a free, unlinked block allocated. When the
// remainder is larger than a minimum block it is split off and listed.
func (ta *TagAllocator) place(b block, needed int) block {
	size := b.size()
	rem := size - needed
	if rem > minBlockSize {
		ta.stats.SplitCount++
		b.setTags(needed, true)

		tail := block{b.mem, b.off + needed}
		tail.setTags(rem, false)
		ta.pushFront(asNode(tail))
		return b
	}
	b.setTags(size, true)
	return b
}

// Release frees the block at p, merging it with free neighbours.
func (ta *TagAllocator) Release(p Addr) {
	if !ta.ready {
		return
	}
	ta.stats.ReleaseCalls++
	ta.release(p)
}

func (ta *TagAllocator) release(p Addr) {
	if p == Nil {
		return
	}
	mem := ta.a.Bytes()
	b, ok := ta.blockAt(mem, p)
	if !ok {
		ta.stats.InvalidReleases++
		if ta.trace {
			logger.Debug("alloc release ignored", "addr", int(p))
		}
		return
	}
	if !b.allocated() {
		ta.stats.DoubleFrees++
		if ta.trace {
			logger.Debug("alloc double free", "addr", int(p), "size", b.size())
		}
		return
	}

	off, size := b.off, b.size()
	ta.stats.BytesReleased += int64(size)

	// The block's own tags are cleared first so that a second release of p
	// is recognized even after p is swallowed by a merge.
	b.setTags(size, false)

	// Coalesce with the previous block. The sentinels are allocated, so the
	// word before the first user block never reads as free.
	if prev := format.ReadTag(mem, off-format.FooterSize); !prev.Allocated() {
		pb := block{mem, off - prev.Size()}
		if ta.checked {
			ta.mustCheck(mem, pb.off)
		}
		ta.stats.CoalesceFront++
		ta.unlink(asNode(pb))
		off = pb.off
		size += pb.size()
	}

	// Coalesce with the next block
	if end := off + size; end < len(mem) {
		nb := block{mem, end}
		if !nb.allocated() {
			if ta.checked {
				ta.mustCheck(mem, nb.off)
			}
			ta.stats.CoalesceBack++
			ta.unlink(asNode(nb))
			size += nb.size()
		}
	}

	merged := block{mem, off}
	merged.setTags(size, false)
	ta.pushFront(asNode(merged))

	if ta.trace {
		logger.Debug("alloc release", "addr", int(p), "block", off, "size", size)
	}
}

// Resize moves the payload at p into a block of n bytes. The first
// min(old usable, n) bytes are preserved. Resize(Nil, n) is Reserve(n);
// Resize(p, 0) releases p and returns Nil. On error p is untouched.
func (ta *TagAllocator) Resize(p Addr, n int) (Addr, []byte, error) {
	if !ta.ready {
		return Nil, nil, ErrNotInitialized
	}
	ta.stats.ResizeCalls++

	if p == Nil {
		return ta.reserve(n)
	}

	old, ok := ta.live(p)
	if !ok {
		return Nil, nil, fmt.Errorf("%w: resize of 0x%X", ErrBadAddr, int(p))
	}
	if n == 0 {
		ta.release(p)
		return Nil, nil, nil
	}
	oldUsable := old.usable()

	np, payload, err := ta.reserve(n)
	if err != nil {
		return Nil, nil, err
	}

	mem := ta.a.Bytes()
	src := int(p)
	copy(payload, mem[src:src+min(oldUsable, n)])
	ta.release(p)

	return np, payload, nil
}

// Payload returns the full usable payload of a live block, or nil.
func (ta *TagAllocator) Payload(p Addr) []byte {
	u, ok := ta.live(p)
	if !ok {
		return nil
	}
	return u.payload(u.usable())
}

// Arena returns the arena the allocator manages.
func (ta *TagAllocator) Arena() arena.Arena { return ta.a }

// live returns the allocated block at p.
func (ta *TagAllocator) live(p Addr) (usedBlock, bool) {
	if !ta.ready {
		return usedBlock{}, false
	}
	b, ok := ta.blockAt(ta.a.Bytes(), p)
	if !ok || !b.allocated() {
		return usedBlock{}, false
	}
	return asUsed(b), true
}

// blockAt recovers the block whose payload starts at p. Addresses outside
// the user region, misaligned addresses and implausible headers are
// rejected. In checked mode a header/footer mismatch on an allocated
// block panics instead.
func (ta *TagAllocator) blockAt(mem []byte, p Addr) (block, bool) {
	off := int(p) - headerSize
	if p == Nil || !format.IsAligned(int(p)) || off < ta.start || !buf.Has(mem, off, minBlockSize) {
		return block{}, false
	}
	b := block{mem, off}
	size := b.size()
	if size < minBlockSize || !buf.Has(mem, off, size) {
		return block{}, false
	}
	// A free header is reported as is so the caller can count a double
	// free; its footer may already belong to a larger merged block.
	if b.allocated() {
		if ta.checked {
			ta.mustCheck(mem, off)
		} else if b.footer() != b.tag() {
			return block{}, false
		}
	}
	return b, true
}

// mustCheck panics if the block at off has mismatched tags.
func (ta *TagAllocator) mustCheck(mem []byte, off int) {
	if err := verify.HeaderFooter(mem, off); err != nil {
		panic(fmt.Errorf("%w: %w", ErrCorrupt, err))
	}
}

func (ta *TagAllocator) noteGrow(delta int) {
	ta.stats.GrowCalls++
	ta.stats.GrowBytes += int64(delta)
	if ta.onGrow != nil {
		ta.onGrow(delta)
	}
}

// Walk calls fn for every block after the sentinels, in address order,
// until fn returns false.
func (ta *TagAllocator) Walk(fn func(Block) bool) {
	if !ta.ready {
		return
	}
	mem := ta.a.Bytes()
	for off := ta.start; off < len(mem); {
		b := block{mem, off}
		size := b.size()
		if size < minBlockSize {
			return
		}
		if !fn(Block{Offset: off, Size: size, Allocated: b.allocated()}) {
			return
		}
		off += size
	}
}

// Usage walks the heap and summarizes it.
func (ta *TagAllocator) Usage() Usage {
	u := Usage{
		ArenaBytes:    ta.a.Hi(),
		OverheadBytes: ta.start,
	}
	ta.Walk(func(b Block) bool {
		if b.Allocated {
			u.LiveBlocks++
			u.LiveBytes += b.Size
		} else {
			u.FreeBlocks++
			u.FreeBytes += b.Size
			u.LargestFree = max(u.LargestFree, b.Size)
		}
		return true
	})
	return u
}

// Check validates every block and every free list.
func (ta *TagAllocator) Check() error {
	if !ta.ready {
		return ErrNotInitialized
	}
	err := verify.All(ta.a.Bytes(), verify.Layout{
		Start:   ta.base,
		Heads:   ta.heads,
		ClassOf: ta.sizeTable.classify,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nil
}

// Stats returns a copy of the allocator counters.
func (ta *TagAllocator) Stats() Stats {
	return ta.stats
}

// SizeClasses returns the name of the active size class configuration.
func (ta *TagAllocator) SizeClasses() string {
	return ta.sizeTable.String()
}

// PrintStats prints allocator statistics to w.
func (ta *TagAllocator) PrintStats(w io.Writer) {
	s := ta.stats
	u := ta.Usage()
	fmt.Fprintf(w, "\n=== ALLOCATOR STATISTICS ===\n")
	fmt.Fprintf(w, "Size classes:       %s (%d lists)\n", ta.sizeTable.String(), len(ta.heads))
	fmt.Fprintf(w, "Grow calls:         %d (%d KB added)\n", s.GrowCalls, s.GrowBytes/1024)
	fmt.Fprintf(
		w,
		"Reserve calls:      %d (fast: %d, slow: %d, failed: %d)\n",
		s.ReserveCalls,
		s.ReserveFastPath,
		s.ReserveSlowPath,
		s.ReserveFailed,
	)
	fmt.Fprintf(w, "Release calls:      %d (double: %d, invalid: %d)\n",
		s.ReleaseCalls, s.DoubleFrees, s.InvalidReleases)
	fmt.Fprintf(w, "Resize calls:       %d\n", s.ResizeCalls)
	fmt.Fprintf(w, "Splits:             %d\n", s.SplitCount)
	fmt.Fprintf(w, "Coalesce:           %d front, %d back\n", s.CoalesceFront, s.CoalesceBack)
	fmt.Fprintf(w, "Live:               %d blocks, %d bytes\n", u.LiveBlocks, u.LiveBytes)
	fmt.Fprintf(w, "Free:               %d blocks, %d bytes (largest %d)\n",
		u.FreeBlocks, u.FreeBytes, u.LargestFree)
	fmt.Fprintf(w, "Arena:              %d bytes (%d overhead)\n", u.ArenaBytes, u.OverheadBytes)
	for sc, c := range ta.counts {
		if c > 0 {
			fmt.Fprintf(w, "  SC[%d]: %d blocks\n", sc, c)
		}
	}
	fmt.Fprintf(w, "============================\n\n")
}
