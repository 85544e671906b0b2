package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and extending the heap failed.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: invalid request size")

	// ErrOverflow indicates a request whose adjusted size does not fit in an int.
	ErrOverflow = errors.New("alloc: request size overflows")

	// ErrInit indicates the heap could not be set up.
	ErrInit = errors.New("alloc: heap initialization failed")
)
