package trace

import (
	"errors"
	"fmt"
)

// OpKind identifies a trace operation.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpRealloc OpKind = 'r'
	OpFree    OpKind = 'f'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpRealloc:
		return "realloc"
	case OpFree:
		return "free"
	}
	return fmt.Sprintf("OpKind(%q)", byte(k))
}

// Op is one request in a trace. Size is unused for frees.
type Op struct {
	Kind OpKind
	ID   int
	Size int
}

func (o Op) String() string {
	if o.Kind == OpFree {
		return fmt.Sprintf("%c %d", byte(o.Kind), o.ID)
	}
	return fmt.Sprintf("%c %d %d", byte(o.Kind), o.ID, o.Size)
}

// Trace is a recorded sequence of allocator requests.
type Trace struct {
	Name     string // File name or generator label
	HeapSize int    // Suggested heap size (informational)
	NumIDs   int    // Block ids are in [0, NumIDs)
	Weight   int    // Weight in aggregate scores (0 excludes the trace)
	Ops      []Op
}

var (
	// ErrOverlap indicates a returned payload overlapping another live payload.
	ErrOverlap = errors.New("trace: payload overlaps a live block")

	// ErrMisaligned indicates a payload address that is not 8-byte aligned.
	ErrMisaligned = errors.New("trace: payload not aligned")

	// ErrOutOfArena indicates a payload that does not lie inside the arena.
	ErrOutOfArena = errors.New("trace: payload outside the arena")

	// ErrPayloadCorrupted indicates payload bytes changed while the caller owned them.
	ErrPayloadCorrupted = errors.New("trace: payload corrupted")

	// ErrShortPayload indicates a payload smaller than the requested size.
	ErrShortPayload = errors.New("trace: payload shorter than requested")

	// ErrInvalid indicates a trace that breaks its own id discipline.
	ErrInvalid = errors.New("trace: invalid trace")
)

// ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace: line %d: %s", e.Line, e.Msg)
}

// ReplayError reports the op at which a replay failed.
type ReplayError struct {
	Trace string
	Index int
	Op    Op
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("trace %s: op %d (%v): %v", e.Trace, e.Index, e.Op, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Validate checks that every op names an id in range, that no id is
// allocated twice while live, and that reallocs and frees only name live
// ids. A realloc to size 0 ends the id's lifetime.
func (t *Trace) Validate() error {
	if t.NumIDs < 0 {
		return fmt.Errorf("%w: negative id count %d", ErrInvalid, t.NumIDs)
	}
	live := make(map[int]bool, min(t.NumIDs, len(t.Ops)))
	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return fmt.Errorf("%w: op %d (%v): id out of range [0, %d)", ErrInvalid, i, op, t.NumIDs)
		}
		switch op.Kind {
		case OpAlloc:
			if live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): id already live", ErrInvalid, i, op)
			}
			if op.Size <= 0 {
				return fmt.Errorf("%w: op %d (%v): size must be positive", ErrInvalid, i, op)
			}
			live[op.ID] = true
		case OpRealloc:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): realloc of dead id", ErrInvalid, i, op)
			}
			if op.Size < 0 {
				return fmt.Errorf("%w: op %d (%v): negative size", ErrInvalid, i, op)
			}
			live[op.ID] = op.Size > 0
		case OpFree:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): free of dead id", ErrInvalid, i, op)
			}
			live[op.ID] = false
		default:
			return fmt.Errorf("%w: op %d: unknown kind %q", ErrInvalid, i, byte(op.Kind))
		}
	}
	return nil
}

// Counts returns the number of ops of each kind.
func (t *Trace) Counts() (allocs, reallocs, frees int) {
	for _, op := range t.Ops {
		switch op.Kind {
		case OpAlloc:
			allocs++
		case OpRealloc:
			reallocs++
		case OpFree:
			frees++
		}
	}
	return allocs, reallocs, frees
}
