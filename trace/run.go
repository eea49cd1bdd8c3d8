package trace

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/logger"
)

// Factory builds a fresh allocator for one replay. Every replay gets its
// own allocator and arena, so replays share no state.
type Factory func() (alloc.Allocator, error)

// RunOptions controls Run.
type RunOptions struct {
	// Workers bounds how many traces replay at once (default GOMAXPROCS).
	Workers int

	// Check runs the allocator's consistency check after every op.
	Check bool

	// Timing adds a second, unvalidated replay per trace on a fresh
	// allocator and reports its elapsed time, so validation cost does not
	// count against throughput.
	Timing bool
}

// Run replays every trace in parallel and returns one Result per trace,
// in input order. A trace that fails records its error in Result.Err;
// Run itself only fails when ctx is cancelled.
func Run(ctx context.Context, traces []*Trace, newAllocator Factory, opts RunOptions) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := pool.NewWithResults[Result]().WithMaxGoroutines(workers).WithContext(ctx)
	for i, t := range traces {
		p.Go(func(ctx context.Context) (Result, error) {
			res := runOne(ctx, t, newAllocator, opts)
			res.Index = i
			return res, nil
		})
	}

	results, err := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	if logger.Enabled(slog.LevelInfo) {
		s := Summarize(results)
		logger.Info("run finished", "traces", s.Traces, "failed", s.Failed, "ops", s.Ops, "perf", s.PerfIndex)
	}
	if err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func runOne(ctx context.Context, t *Trace, newAllocator Factory, opts RunOptions) Result {
	fail := func(err error) Result {
		logger.Warn("trace failed", "trace", t.Name, "err", err)
		return Result{Trace: t.Name, Weight: t.Weight, Err: err, Error: err.Error()}
	}

	if err := t.Validate(); err != nil {
		return fail(fmt.Errorf("%s: %w", t.Name, err))
	}

	a, err := newAllocator()
	if err != nil {
		return fail(err)
	}
	res, err := Replay(ctx, a, t, ReplayOptions{Validate: true, Check: opts.Check})
	closeArena(a)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		logger.Warn("trace failed", "trace", t.Name, "err", err)
		return res
	}

	if opts.Timing {
		timed, err := newAllocator()
		if err != nil {
			return fail(err)
		}
		tres, err := Replay(ctx, timed, t, ReplayOptions{})
		closeArena(timed)
		if err != nil {
			return fail(err)
		}
		res.Elapsed = tres.Elapsed
	}

	logger.Debug("trace replayed",
		"trace", t.Name, "ops", res.Ops, "util", res.Utilization, "elapsed", res.Elapsed)
	return res
}

func closeArena(a alloc.Allocator) {
	if err := a.Arena().Close(); err != nil {
		logger.Warn("closing arena", "err", err)
	}
}

// ArenaKind selects the arena implementation used by NewFactory.
type ArenaKind string

const (
	ArenaMem    ArenaKind = "mem"
	ArenaMapped ArenaKind = "mmap"
)

// FactoryConfig describes the allocators NewFactory builds.
type FactoryConfig struct {
	Allocator   string // "tag" (default) or "naive"
	Arena       ArenaKind
	MaxHeap     int // Arena capacity in bytes (0 for arena.DefaultMaxSize)
	SizeClasses *alloc.SizeClassConfig
	Checked     bool
}

// NewFactory returns a Factory for cfg, rejecting unknown names up front.
func NewFactory(cfg FactoryConfig) (Factory, error) {
	switch cfg.Arena {
	case "", ArenaMem, ArenaMapped:
	default:
		return nil, fmt.Errorf("trace: unknown arena %q (want mem or mmap)", cfg.Arena)
	}
	switch cfg.Allocator {
	case "", "tag", "naive":
	default:
		return nil, fmt.Errorf("trace: unknown allocator %q (want tag or naive)", cfg.Allocator)
	}

	return func() (alloc.Allocator, error) {
		var a arena.Arena
		if cfg.Arena == ArenaMapped {
			m, err := arena.NewMapped(cfg.MaxHeap)
			if err != nil {
				return nil, err
			}
			a = m
		} else {
			a = arena.NewMem(cfg.MaxHeap)
		}

		var (
			al  alloc.Allocator
			err error
		)
		if cfg.Allocator == "naive" {
			al, err = alloc.NewBump(a)
		} else {
			al, err = alloc.New(a, &alloc.Options{SizeClasses: cfg.SizeClasses, Checked: cfg.Checked})
		}
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		return al, nil
	}, nil
}
