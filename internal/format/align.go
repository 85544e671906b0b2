package format

// AlignDSize returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	AlignDSize(1)  = 16
//	AlignDSize(16) = 16
//	AlignDSize(17) = 32
func AlignDSize(n int) int {
	return (n + DSizeMask) & ^DSizeMask
}

// AdjustedSize converts a request of size payload bytes into the block size
// the allocator must find: tag overhead plus alignment, never smaller than
// MinBlockSize. The caller handles size <= 0.
//
// Example:
//
//	AdjustedSize(1)  = 32
//	AdjustedSize(16) = 32
//	AdjustedSize(17) = 48
//	AdjustedSize(24) = 48
func AdjustedSize(size int) int {
	if size <= DSize {
		return MinBlockSize
	}
	return DSize * ((size + Overhead + DSizeMask) / DSize)
}

// EvenWords rounds a word count up to an even number and returns the byte
// count, so heap extensions keep the double-word alignment.
func EvenWords(words int) int {
	if words%2 == 1 {
		words++
	}
	return words * WordSize
}
