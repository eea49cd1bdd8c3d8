// Package verify provides validation functions for boundary-tag arenas.
//
// # Overview
//
// The validators read raw arena bytes and never touch allocator state, so
// they can check a live heap, a heap snapshot, or a hand-built fixture in a
// test. The allocator uses them for its Check method; the trace replayer
// uses them after every op when asked to.
//
// Validation categories:
//   - Blocks: every block from the first sentinel to the break
//   - FreeLists: every class list anchored at its sentinel
//   - All: both of the above plus a cross-check that every free block
//     is listed exactly once
//
// # Quick Start
//
//	layout := verify.Layout{Start: base, Heads: heads, ClassOf: classify}
//	if err := verify.All(a.Bytes(), layout); err != nil {
//	    fmt.Printf("heap corrupted: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string                 // Error category (e.g., "Blocks")
//	    Message string                 // Human-readable description
//	    Offset  int                    // Arena offset where the error occurred (-1 if N/A)
//	    Details map[string]interface{} // Additional context
//	}
//
// All aggregates every failure it finds with errors.Join; use errors.As to
// pull out the first ValidationError.
//
// # Block Walk
//
// Blocks walks headers from Layout.Start and validates:
//   - Header is 8-byte aligned and fits in the arena
//   - Size is a multiple of 8 and at least the minimum block size
//   - Footer equals header
//   - No two free blocks are adjacent (coalescing is immediate)
//   - The last block ends exactly at the break
//
// # Free List Walk
//
// FreeLists follows each circular list from its sentinel and validates:
//   - Every link points inside the arena at an aligned offset
//   - next.prev and prev.next point back at the node
//   - Every node other than the sentinel is free
//   - Every node sits in the class its size maps to
//   - The walk returns to the sentinel within a bounded number of steps
package verify
