package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/hashmap"
	"github.com/zeebo/xxh3"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/logger"
)

// ctxCheckInterval is how many ops run between context checks.
const ctxCheckInterval = 1024

// ReplayOptions controls a single replay.
type ReplayOptions struct {
	// Validate checks every returned block (alignment, bounds, size,
	// overlap) and fingerprints payloads to catch clobbered bytes.
	Validate bool

	// Check runs the allocator's own consistency check after every op,
	// when the allocator implements alloc.Checker.
	Check bool
}

// Result is the outcome of replaying one trace.
type Result struct {
	Index       int           `json:"index"`
	Trace       string        `json:"trace"`
	Weight      int           `json:"weight"`
	Ops         int           `json:"ops"`
	PeakLive    int           `json:"peak_live"`   // Peak requested payload bytes
	ArenaBytes  int           `json:"arena_bytes"` // Arena footprint after the replay
	Utilization float64       `json:"utilization"` // PeakLive / ArenaBytes
	Elapsed     time.Duration `json:"elapsed_ns"`
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
}

// OK reports whether the replay completed without error.
func (r Result) OK() bool { return r.Err == nil }

// KOpsPerSec returns throughput in thousands of ops per second.
func (r Result) KOpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds() / 1000
}

// liveBlock is a replay's view of one live trace id.
type liveBlock struct {
	addr alloc.Addr
	size int
	sum  uint64 // xxh3 of the payload as last written
}

type replayer struct {
	a       alloc.Allocator
	t       *Trace
	opts    ReplayOptions
	live    *hashmap.Map[int, liveBlock]
	scratch []byte

	liveBytes int
	peak      int
}

// Replay runs t against a. On failure it returns a *ReplayError naming the
// op and the partial Result.
func Replay(ctx context.Context, a alloc.Allocator, t *Trace, opts ReplayOptions) (Result, error) {
	r := &replayer{
		a:    a,
		t:    t,
		opts: opts,
		live: hashmap.New[int, liveBlock](min(t.NumIDs, len(t.Ops))),
	}
	res := Result{Trace: t.Name, Weight: t.Weight}

	start := time.Now()
	for i, op := range t.Ops {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				res.Ops = i
				return r.finish(res, start), &ReplayError{Trace: t.Name, Index: i, Op: op, Err: err}
			}
		}
		if err := r.step(op); err != nil {
			logger.Debug("replay failed", "trace", t.Name, "op", i, "err", err)
			res.Ops = i
			return r.finish(res, start), &ReplayError{Trace: t.Name, Index: i, Op: op, Err: err}
		}
	}
	res.Ops = len(t.Ops)
	return r.finish(res, start), nil
}

func (r *replayer) finish(res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)
	res.PeakLive = r.peak
	res.ArenaBytes = r.a.Arena().Hi()
	if res.ArenaBytes > 0 {
		res.Utilization = float64(r.peak) / float64(res.ArenaBytes)
	}
	return res
}

func (r *replayer) step(op Op) error {
	var err error
	switch op.Kind {
	case OpAlloc:
		err = r.alloc(op)
	case OpRealloc:
		err = r.realloc(op)
	case OpFree:
		err = r.free(op)
	default:
		err = fmt.Errorf("%w: unknown op kind %q", ErrInvalid, byte(op.Kind))
	}
	if err != nil {
		return err
	}

	if r.opts.Check {
		if c, ok := r.a.(alloc.Checker); ok {
			return c.Check()
		}
	}
	return nil
}

func (r *replayer) alloc(op Op) error {
	if _, ok := r.live.Get(op.ID); ok {
		return fmt.Errorf("%w: id %d already live", ErrInvalid, op.ID)
	}
	p, payload, err := r.a.Reserve(op.Size)
	if err != nil {
		return err
	}
	lb := liveBlock{addr: p, size: op.Size}
	if r.opts.Validate {
		if err := r.checkPlacement(p, payload, op.Size); err != nil {
			return err
		}
		lb.sum = r.stamp(payload, op.ID)
	}
	r.live.Set(op.ID, lb)
	r.track(op.Size)
	return nil
}

func (r *replayer) realloc(op Op) error {
	old, ok := r.live.Get(op.ID)
	if !ok {
		return fmt.Errorf("%w: realloc of dead id %d", ErrInvalid, op.ID)
	}
	if r.opts.Validate {
		if err := r.checkIntact(old); err != nil {
			return err
		}
	}

	p, payload, err := r.a.Resize(old.addr, op.Size)
	if err != nil {
		return err
	}
	r.live.Delete(op.ID)
	r.track(-old.size)
	if op.Size == 0 {
		return nil
	}

	lb := liveBlock{addr: p, size: op.Size}
	if r.opts.Validate {
		if err := r.checkPlacement(p, payload, op.Size); err != nil {
			return err
		}
		keep := min(old.size, op.Size)
		if xxh3.Hash(payload[:keep]) != xxh3.Hash(r.pattern(op.ID, keep)) {
			return fmt.Errorf("%w: realloc of id %d lost its first %d bytes", ErrPayloadCorrupted, op.ID, keep)
		}
		lb.sum = r.stamp(payload, op.ID)
	}
	r.live.Set(op.ID, lb)
	r.track(op.Size)
	return nil
}

func (r *replayer) free(op Op) error {
	lb, ok := r.live.Get(op.ID)
	if !ok {
		return fmt.Errorf("%w: free of dead id %d", ErrInvalid, op.ID)
	}
	if r.opts.Validate {
		if err := r.checkIntact(lb); err != nil {
			return err
		}
	}
	r.a.Release(lb.addr)
	r.live.Delete(op.ID)
	r.track(-lb.size)
	return nil
}

func (r *replayer) track(delta int) {
	r.liveBytes += delta
	r.peak = max(r.peak, r.liveBytes)
}

// checkPlacement validates a freshly returned block against the arena and
// every other live block.
func (r *replayer) checkPlacement(p alloc.Addr, payload []byte, n int) error {
	if !format.IsAligned(int(p)) {
		return fmt.Errorf("%w: 0x%X", ErrMisaligned, int(p))
	}
	if !buf.InRange(int(p), n, 0, r.a.Arena().Hi()) {
		return fmt.Errorf("%w: [0x%X, 0x%X) with break 0x%X", ErrOutOfArena, int(p), int(p)+n, r.a.Arena().Hi())
	}
	if len(payload) < n {
		return fmt.Errorf("%w: got %d, want %d", ErrShortPayload, len(payload), n)
	}

	var clash error
	r.live.Scan(func(id int, lb liveBlock) bool {
		if buf.Overlaps(int(p), n, int(lb.addr), lb.size) {
			clash = fmt.Errorf("%w: [0x%X, 0x%X) and id %d at [0x%X, 0x%X)",
				ErrOverlap, int(p), int(p)+n, id, int(lb.addr), int(lb.addr)+lb.size)
			return false
		}
		return true
	})
	return clash
}

// checkIntact verifies that a live payload still holds what was written.
func (r *replayer) checkIntact(lb liveBlock) error {
	payload := r.a.Payload(lb.addr)
	if len(payload) < lb.size {
		return fmt.Errorf("%w: 0x%X holds %d bytes, want %d", ErrShortPayload, int(lb.addr), len(payload), lb.size)
	}
	if xxh3.Hash(payload[:lb.size]) != lb.sum {
		return fmt.Errorf("%w: block at 0x%X", ErrPayloadCorrupted, int(lb.addr))
	}
	return nil
}

// stamp fills payload with the id's pattern and returns its fingerprint.
func (r *replayer) stamp(payload []byte, id int) uint64 {
	copy(payload, r.pattern(id, len(payload)))
	return xxh3.Hash(payload)
}

// pattern returns the first n bytes every payload of id is filled with.
// The slice is reused between calls.
func (r *replayer) pattern(id, n int) []byte {
	if cap(r.scratch) < n {
		r.scratch = make([]byte, n)
	}
	p := r.scratch[:n]
	seed := byte(id*131 + 7)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}
