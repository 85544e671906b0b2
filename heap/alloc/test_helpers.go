package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh slice region of limit bytes.
// A nil cfg uses DefaultConfig.
func newTestAllocator(t testing.TB, limit int, cfg *Config) *ListAllocator {
	t.Helper()

	a, err := New(heap.NewRegion(limit), nil, cfg)
	require.NoError(t, err, "New should succeed")
	return a
}

// ============================================================================
// Invariant Helpers
// ============================================================================

// requireConsistent fails the test if the heap checker reports a violation.
func requireConsistent(t testing.TB, a *ListAllocator) {
	t.Helper()
	require.NoError(t, a.CheckInvariants(), "heap invariants must hold")
}

// freeBlocks returns the free blocks found by the address-order walk.
func freeBlocks(a *ListAllocator) []BlockInfo {
	var out []BlockInfo
	for _, b := range a.Blocks() {
		if !b.Allocated {
			out = append(out, b)
		}
	}
	return out
}

// mustAlloc allocates size bytes or fails the test.
func mustAlloc(t testing.TB, a *ListAllocator, size int) Ptr {
	t.Helper()
	p, err := a.Alloc(size)
	require.NoError(t, err, "Alloc(%d)", size)
	require.NotEqual(t, Nil, p, "Alloc(%d) returned Nil", size)
	return p
}
