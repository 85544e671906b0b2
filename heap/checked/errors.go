package checked

import "errors"

var (
	// ErrDoubleFree indicates a pointer freed a second time.
	ErrDoubleFree = errors.New("checked: double free")

	// ErrUnknownPointer indicates a pointer the allocator never returned.
	ErrUnknownPointer = errors.New("checked: pointer not returned by Alloc")

	// ErrOutOfRange indicates a pointer outside the heap's block area.
	ErrOutOfRange = errors.New("checked: pointer outside heap")

	// ErrMisaligned indicates a pointer that is not 16-byte aligned.
	ErrMisaligned = errors.New("checked: misaligned pointer")

	// ErrOverlap indicates the allocator returned an address that is still live.
	ErrOverlap = errors.New("checked: allocator returned a live block")
)
