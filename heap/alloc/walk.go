package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Blocks walks the heap in address order and describes every block between
// the prologue and the epilogue. The walk stops early on a block whose tags
// would leave the region, so it is safe on a corrupted heap.
func (a *ListAllocator) Blocks() []BlockInfo {
	b := a.r.Bytes()
	var out []BlockInfo
	for bp := format.NextBlock(b, a.start); bp < len(b); {
		size := format.BlockSize(b, bp)
		if size < format.MinBlockSize || bp+size > len(b) {
			break
		}
		out = append(out, BlockInfo{
			Addr:      Ptr(bp),
			Size:      size,
			Allocated: format.IsAllocated(b, bp),
		})
		bp += size
	}
	return out
}

// FreeList returns the free blocks in list order, head first. A cycle ends
// the walk after every block of the heap could have been visited once.
func (a *ListAllocator) FreeList() []Ptr {
	b := a.r.Bytes()
	limit := len(b)/format.MinBlockSize + 1
	var out []Ptr
	for bp := a.head; bp != 0 && len(out) < limit; bp = format.NextFree(b, bp) {
		if bp < 0 || bp+format.DSize > len(b) {
			break
		}
		out = append(out, Ptr(bp))
	}
	return out
}

// Histogram buckets the free blocks by size. A nil cfg uses DefaultHistogram.
func (a *ListAllocator) Histogram(cfg *SizeClassConfig) []SizeClassCount {
	if cfg == nil {
		cfg = &DefaultHistogram
	}
	b := a.r.Bytes()
	free := a.FreeList()
	sizes := make([]int, 0, len(free))
	for _, p := range free {
		sizes = append(sizes, format.BlockSize(b, int(p)))
	}
	return newSizeClassTable(*cfg).histogram(sizes)
}
