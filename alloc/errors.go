package alloc

import "errors"

var (
	// ErrOutOfMemory indicates that no free block was large enough and the arena could not grow.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrZeroSize indicates a request for zero or a negative number of bytes.
	ErrZeroSize = errors.New("alloc: request size must be positive")

	// ErrBadAddr indicates an address that does not name a live block.
	ErrBadAddr = errors.New("alloc: bad block address")

	// ErrNotInitialized indicates use of an allocator before Init.
	ErrNotInitialized = errors.New("alloc: allocator not initialized")

	// ErrCorrupt indicates that block metadata failed a consistency check.
	ErrCorrupt = errors.New("alloc: heap corrupted")
)
