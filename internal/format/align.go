package format

import "math"

// Align returns n aligned up to the next Alignment boundary.
//
// Example:
//
//	Align(1)  = 8
//	Align(8)  = 8
//	Align(9)  = 16
//	Align(16) = 16
func Align(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// BlockSize returns the total block size needed to hand out n payload bytes:
// n plus both boundary tags, aligned, and never below MinBlockSize.
// ok is false when n is not positive or the result would overflow int.
func BlockSize(n int) (size int, ok bool) {
	if n <= 0 || n > math.MaxInt-Overhead-AlignmentMask {
		return 0, false
	}
	return max(Align(n+Overhead), MinBlockSize), true
}

// PayloadSize returns the usable payload bytes of a block of the given size.
func PayloadSize(blockSize int) int {
	return blockSize - Overhead
}
