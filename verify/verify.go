// Package verify provides validation functions for boundary-tag arenas.
// These helpers are used in tests and by the allocator's Check method.
package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
)

// Error types for different validation failures.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Layout tells the validators where blocks begin and how free lists are anchored.
type Layout struct {
	// Start is the offset of the first block to walk (the first sentinel).
	Start int

	// Heads holds the sentinel offset of each size class, in class order.
	Heads []int

	// ClassOf maps a block size to its class index. May be nil, in which
	// case class membership is not checked.
	ClassOf func(size int) int
}

// All validates blocks and free lists and cross-checks them.
// Every failure found is returned, joined with errors.Join.
func All(data []byte, l Layout) error {
	free, blockErr := walkBlocks(data, l.Start)
	listed, listErr := walkLists(data, l)

	errs := []error{blockErr, listErr}
	if blockErr == nil && listErr == nil {
		for off := range free {
			if !listed[off] {
				errs = append(errs, &ValidationError{
					Type:    "All",
					Message: "free block is not on any free list",
					Offset:  off,
				})
			}
		}
		if len(listed) != len(free) {
			errs = append(errs, &ValidationError{
				Type:    "All",
				Message: fmt.Sprintf("free list count mismatch: listed=%d walked=%d", len(listed), len(free)),
				Offset:  -1,
				Details: map[string]interface{}{
					"listed": len(listed),
					"walked": len(free),
				},
			})
		}
	}
	return errors.Join(errs...)
}

// Blocks validates the implicit block list from start up to len(data).
func Blocks(data []byte, start int) error {
	_, err := walkBlocks(data, start)
	return err
}

// FreeLists validates each sentinel-anchored circular list in l.
func FreeLists(data []byte, l Layout) error {
	_, err := walkLists(data, l)
	return err
}

// HeaderFooter checks a single block's tags. It is the cheap check run on
// every block the allocator touches in checked mode.
func HeaderFooter(data []byte, off int) error {
	if !format.IsAligned(off) || !buf.Has(data, off, format.MinBlockSize) {
		return &ValidationError{
			Type:    "HeaderFooter",
			Message: fmt.Sprintf("block out of bounds: arena=0x%X", len(data)),
			Offset:  off,
		}
	}
	hdr := format.ReadTag(data, off)
	size := hdr.Size()
	if size < format.MinBlockSize || !buf.Has(data, off, size) {
		return &ValidationError{
			Type:    "HeaderFooter",
			Message: fmt.Sprintf("implausible block size %d", size),
			Offset:  off,
		}
	}
	ftr := format.ReadTag(data, format.FooterOffset(off, size))
	if hdr != ftr {
		return &ValidationError{
			Type:    "HeaderFooter",
			Message: fmt.Sprintf("header/footer mismatch: header=%v footer=%v", hdr, ftr),
			Offset:  off,
			Details: map[string]interface{}{
				"header": uint64(hdr),
				"footer": uint64(ftr),
			},
		}
	}
	return nil
}

// walkBlocks returns the set of free block offsets it saw.
func walkBlocks(data []byte, start int) (map[int]bool, error) {
	if start < 0 || start > len(data) || !format.IsAligned(start) {
		return nil, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("invalid start offset for arena of 0x%X bytes", len(data)),
			Offset:  start,
		}
	}

	free := make(map[int]bool)
	prevFree := false
	pos := start

	for pos < len(data) {
		if err := HeaderFooter(data, pos); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				verr.Type = "Blocks"
			}
			return free, err
		}

		tag := format.ReadTag(data, pos)
		if !tag.Allocated() {
			if prevFree {
				return free, &ValidationError{
					Type:    "Blocks",
					Message: "adjacent free blocks were not coalesced",
					Offset:  pos,
				}
			}
			free[pos] = true
		}
		prevFree = !tag.Allocated()
		pos += tag.Size()
	}

	if pos != len(data) {
		return free, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("last block ends at 0x%X, break is 0x%X", pos, len(data)),
			Offset:  -1,
		}
	}
	return free, nil
}

func walkLists(data []byte, l Layout) (map[int]bool, error) {
	listed := make(map[int]bool)
	limit := len(data)/format.MinBlockSize + 1

	for class, head := range l.Heads {
		if err := checkNode(data, head); err != nil {
			return listed, err
		}

		prev := head
		node := format.ReadLink(data, head+format.NextOffset)
		for steps := 0; node != head; steps++ {
			if steps > limit {
				return listed, &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("class %d does not return to its sentinel", class),
					Offset:  head,
				}
			}
			if err := checkNode(data, node); err != nil {
				return listed, err
			}
			if back := format.ReadLink(data, node+format.PrevOffset); back != prev {
				return listed, &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("prev link 0x%X does not match predecessor 0x%X", back, prev),
					Offset:  node,
				}
			}

			tag := format.ReadTag(data, node)
			if tag.Allocated() {
				return listed, &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("allocated block on free list of class %d", class),
					Offset:  node,
				}
			}
			if l.ClassOf != nil {
				if got := l.ClassOf(tag.Size()); got != class {
					return listed, &ValidationError{
						Type:    "FreeLists",
						Message: fmt.Sprintf("block of size %d belongs to class %d, found in class %d", tag.Size(), got, class),
						Offset:  node,
					}
				}
			}
			if listed[node] {
				return listed, &ValidationError{
					Type:    "FreeLists",
					Message: "block listed more than once",
					Offset:  node,
				}
			}
			listed[node] = true

			prev = node
			node = format.ReadLink(data, node+format.NextOffset)
		}

		if back := format.ReadLink(data, head+format.PrevOffset); back != prev {
			return listed, &ValidationError{
				Type:    "FreeLists",
				Message: fmt.Sprintf("sentinel prev 0x%X does not match tail 0x%X", back, prev),
				Offset:  head,
			}
		}
	}
	return listed, nil
}

func checkNode(data []byte, off int) error {
	if !format.IsAligned(off) || !buf.Has(data, off, format.MinBlockSize) {
		return &ValidationError{
			Type:    "FreeLists",
			Message: fmt.Sprintf("link points outside the arena (0x%X bytes)", len(data)),
			Offset:  off,
		}
	}
	return nil
}
