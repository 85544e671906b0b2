// Package alloc implements a boundary-tag heap allocator with an explicit free list.
//
// # Overview
//
// ListAllocator manages one growable region obtained from a heap.Provider
// (the sbrk analog). Every block carries a header and a footer tag holding
// its size and allocated bit. Free blocks are threaded into a doubly-linked
// list whose link words live in the free blocks' own payload bytes.
//
//   - Alloc(size): first-fit search of the free list, split when the
//     remainder can stand alone, heap extension when nothing fits
//   - Free(ptr): clear the allocated bit, coalesce with free neighbours
//   - Realloc / Calloc: built on Alloc and Free, no in-place growth
//
// # Block Layout
//
//	begin                                                            end
//	heap                                                            heap
//	 -----------------------------------------------------------------
//	|  pad   | hdr(16:a) | ftr(16:a) | zero or more usr blks | hdr(0:a) |
//	 -----------------------------------------------------------------
//	         |       prologue        |                       | epilogue |
//
// Block sizes are multiples of 16 and never smaller than 32 bytes, so a
// freed block always has room for its two link words. Payload addresses
// (Ptr) are offsets into the region and are 16-byte aligned.
//
// # Usage Example
//
//	r := heap.NewRegion(heap.DefaultMaxHeap)
//	a, err := alloc.New(r, nil, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Payload(p), data)
//	a.Free(p)
//
// # Misuse
//
// Freeing a pointer twice, or one Alloc never returned, is undefined. The
// allocator does not check. Use the heap/checked wrapper, or CheckInvariants,
// when that matters more than speed.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally. Independent allocators over independent regions may be used
// from different goroutines.
package alloc
