package alloc

import "github.com/joshuapare/heapkit/internal/format"

// insert pushes free block bp onto the head of the list.
func (a *ListAllocator) insert(b []byte, bp int) {
	format.SetNextFree(b, bp, a.head)
	format.SetPrevFree(b, bp, 0)
	a.mark(bp, format.DSize)

	if a.head != 0 {
		format.SetPrevFree(b, a.head, bp)
		a.mark(a.head+format.WordSize, format.WordSize)
	}
	a.head = bp
}

// remove unlinks free block bp. Its link words are stale afterwards.
func (a *ListAllocator) remove(b []byte, bp int) {
	next := format.NextFree(b, bp)
	prev := format.PrevFree(b, bp)

	switch {
	case prev == 0:
		// Head (possibly also the only element).
		a.head = next
	default:
		format.SetNextFree(b, prev, next)
		a.mark(prev, format.WordSize)
	}

	if next != 0 {
		// Interior or head with a successor. The tail has none to patch.
		format.SetPrevFree(b, next, prev)
		a.mark(next+format.WordSize, format.WordSize)
	}
}

// findFit returns the first free block of at least asize bytes, or 0.
func (a *ListAllocator) findFit(asize int) int {
	b := a.r.Bytes()
	for bp := a.head; bp != 0; bp = format.NextFree(b, bp) {
		a.stats.FreeListScans++
		if format.BlockSize(b, bp) >= asize {
			return bp
		}
	}
	return 0
}
