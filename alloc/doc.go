// Package alloc provides boundary-tag block allocation over a growable arena.
//
// # Overview
//
// TagAllocator manages a single arena.Arena and services Reserve, Release
// and Resize requests. Every block carries its size and allocated flag in
// a header word and an identical footer word, so the neighbours on either
// side can be found in O(1). Free blocks are kept on segregated, circular,
// doubly-linked lists threaded through the free blocks themselves, and
// adjacent free blocks are merged as soon as one of them is released.
//
// # Block Layout
//
//	allocated                        free
//	+--------+  off                  +--------+  off
//	| header |                       | header |
//	+--------+  off+8 (Addr)         +--------+
//	|        |                       |  next  |  arena offset
//	| payload|                       +--------+
//	|        |                       |  prev  |  arena offset
//	|        |                       +--------+
//	|        |                       |  ...   |
//	+--------+                       +--------+
//	| footer |  off+size-8           | footer |
//	+--------+                       +--------+
//
// Block sizes are multiples of 8 and never below 32, the space a free
// block needs for both tags and both links.
//
// # Usage Example
//
//	a := arena.NewMem(0)
//	ta, err := alloc.New(a, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, payload, err := ta.Reserve(100)
//	if err != nil {
//	    return err
//	}
//	copy(payload, data)
//
//	p, payload, err = ta.Resize(p, 400) // first 100 bytes preserved
//
//	ta.Release(p)
//
// # Size Classes
//
// The default configuration (ConfigClassic) keeps 10 lists:
//
//	Class 0:     1 -   16 bytes
//	Class 1:    17 -   32 bytes
//	Class 2:    33 -   64 bytes
//	Class 3:    65 -  128 bytes
//	Class 4:   129 -  256 bytes
//	Class 5:   257 -  512 bytes
//	Class 6:   513 - 1024 bytes
//	Class 7:     1 -    2 KB
//	Class 8:     2 -    4 KB
//	Class 9:     4+      KB (catch-all)
//
// Classes index block sizes, tags included. Reserve starts at the class of
// the needed block size and scans upward; within a class it takes the first
// block that fits, most recently freed first.
//
// # Sentinels
//
// Init carves one 32-byte allocated block per class at the current break.
// Each is the permanent head of its class list, so empty lists point at
// themselves. Because the sentinels are allocated and sit right before the
// first user block, they also stop coalescing at the bottom of the heap.
//
// # Misuse
//
// Release ignores Nil, addresses outside the heap and addresses whose tags
// do not describe a block (counted as InvalidReleases). Releasing a block
// that is already free is a no-op (counted as DoubleFrees). Options.Checked
// turns tag mismatches on touched blocks into a panic wrapping ErrCorrupt;
// Check validates the whole heap on demand.
//
// # BumpAllocator
//
// BumpAllocator is the naive baseline: every Reserve grows the arena and
// released space is never reused. It shares the block format and the
// Allocator interface, so traces replay against either.
//
// # Thread Safety
//
// Allocators are not safe for concurrent use. Independent allocators on
// independent arenas share no state and may run in parallel.
package alloc
