package format

import "encoding/binary"

// Binary encoding utilities for metadata words.
//
// Implementation: Uses encoding/binary.LittleEndian
//
// Performance Note: the compiler inlines binary.LittleEndian calls and
// folds the bounds checks, so there is no gain from unsafe word casts.

// PutWord writes a metadata word at off in little-endian format.
func PutWord(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], v)
}

// ReadWord reads a metadata word at off in little-endian format.
func ReadWord(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+WordSize])
}

// PutLink stores an arena offset in the link word at off.
func PutLink(b []byte, off int, target int) {
	PutWord(b, off, uint64(target))
}

// ReadLink loads the arena offset stored in the link word at off.
func ReadLink(b []byte, off int) int {
	return int(ReadWord(b, off))
}
