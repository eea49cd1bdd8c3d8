package trace

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
)

// GenConfig describes a synthetic trace.
type GenConfig struct {
	Name         string  // Trace name (default "gen-<seed>")
	Seed         int64   // Random seed; equal seeds give equal traces
	Allocs       int     // Number of alloc ops (default 1000)
	MinSize      int     // Smallest request (default 1)
	MaxSize      int     // Largest request (default 4096)
	FreeRatio    float64 // Chance that a step frees a live id (default 0.4)
	ReallocRatio float64 // Chance that a step reallocs a live id (default 0.1)
	Weight       int     // Trace weight (default 1)
}

func (c *GenConfig) applyDefaults() {
	if c.Allocs <= 0 {
		c.Allocs = 1000
	}
	if c.MinSize <= 0 {
		c.MinSize = 1
	}
	if c.MaxSize < c.MinSize {
		c.MaxSize = max(c.MinSize, 4096)
	}
	if c.FreeRatio <= 0 {
		c.FreeRatio = 0.4
	}
	if c.ReallocRatio < 0 {
		c.ReallocRatio = 0
	}
	if c.Weight <= 0 {
		c.Weight = 1
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("gen-%d", c.Seed)
	}
}

// Generate builds a valid trace from cfg. Every id is allocated exactly
// once and freed before the trace ends, so a replay finishes with an
// empty heap.
func Generate(cfg GenConfig) (*Trace, error) {
	cfg.applyDefaults()
	if cfg.FreeRatio+cfg.ReallocRatio >= 1 {
		return nil, fmt.Errorf("trace: free ratio %.2f + realloc ratio %.2f must be below 1",
			cfg.FreeRatio, cfg.ReallocRatio)
	}

	f := gofakeit.New(cfg.Seed)
	t := &Trace{
		Name:   cfg.Name,
		NumIDs: cfg.Allocs,
		Weight: cfg.Weight,
		Ops:    make([]Op, 0, cfg.Allocs*3),
	}

	var live []int
	next := 0
	size := func() int { return f.Number(cfg.MinSize, cfg.MaxSize) }

	for next < cfg.Allocs {
		roll := f.Float64Range(0, 1)
		switch {
		case len(live) > 0 && roll < cfg.FreeRatio:
			k := f.Number(0, len(live)-1)
			t.Ops = append(t.Ops, Op{Kind: OpFree, ID: live[k]})
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
		case len(live) > 0 && roll < cfg.FreeRatio+cfg.ReallocRatio:
			k := f.Number(0, len(live)-1)
			t.Ops = append(t.Ops, Op{Kind: OpRealloc, ID: live[k], Size: size()})
		default:
			t.Ops = append(t.Ops, Op{Kind: OpAlloc, ID: next, Size: size()})
			live = append(live, next)
			next++
		}
	}

	// Drain in random order.
	f.ShuffleInts(live)
	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})
	}

	t.HeapSize = suggestHeap(t)
	return t, nil
}

// suggestHeap returns the peak requested bytes, the number malloc-lab
// traces carry in their first header line.
func suggestHeap(t *Trace) int {
	sizes := make(map[int]int)
	cur, peak := 0, 0
	for _, op := range t.Ops {
		switch op.Kind {
		case OpAlloc, OpRealloc:
			cur += op.Size - sizes[op.ID]
			sizes[op.ID] = op.Size
		case OpFree:
			cur -= sizes[op.ID]
			delete(sizes, op.ID)
		}
		peak = max(peak, cur)
	}
	return peak
}
