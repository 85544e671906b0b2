// Package checked wraps an allocator with misuse detection for tests and
// tooling.
//
// The unchecked allocator treats a double free, or freeing an address it
// never returned, as undefined behaviour. Allocator here tracks every live
// address and turns those mistakes into errors before they reach the heap.
// With Options.Invariants set it also runs the full heap checker after every
// operation, which makes each call O(heap) and is only suitable for testing.
//
//	a, _ := alloc.New(heap.NewRegion(heap.DefaultMaxHeap), nil, nil)
//	c := checked.New(a, checked.Options{Invariants: true})
//
//	p, _ := c.Alloc(64)
//	_ = c.Free(p)
//	err := c.Free(p) // errors.Is(err, checked.ErrDoubleFree)
package checked
