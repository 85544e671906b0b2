// Package verify checks the structural invariants of a boundary-tag heap.
//
// # Overview
//
// The checker works on raw heap bytes plus the two words of allocator
// state that are not stored in the heap itself: the prologue payload offset
// and the free-list head. It never modifies the bytes it is given.
//
// Validation categories:
//   - Sentinels: prologue header/footer and the zero-size epilogue
//   - Blocks: alignment, size, header/footer agreement, bounds
//   - Coalescing: no two address-adjacent free blocks
//   - Free list: back links, cycles, allocated entries, unlisted free blocks
//
// # Quick Start
//
//	if err := verify.AllInvariants(data, start, head); err != nil {
//	    fmt.Printf("heap corrupted: %v\n", err)
//	}
//
// Allocators expose the same check through CheckInvariants, which supplies
// start and head themselves.
//
// # ValidationError
//
// Every failure is a *ValidationError naming the violated invariant and
// the payload offset of the offending block (-1 when no block applies):
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) && verr.Invariant == verify.TagMismatch {
//	    fmt.Printf("header 0x%X footer 0x%X\n", verr.Details["header"], verr.Details["footer"])
//	}
//
// # Performance Characteristics
//
// AllInvariants is O(blocks) with one map entry per block. It is meant for
// tests, the checked wrapper and offline dumps, not the allocation path.
package verify
