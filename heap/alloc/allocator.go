package alloc

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Runtime debug flag for per-operation logging - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// ListAllocator is a first-fit allocator over a single explicit free list.
//   - Boundary tags give O(1) access to both physical neighbours
//   - The free list is LIFO: freed and split-off blocks go to the head
//   - Every free block re-enters the list through coalesce, so no two free
//     blocks are ever adjacent.
type ListAllocator struct {
	r   heap.Provider
	dt  DirtyTracker // Dirty range tracker for tag and link writes (may be nil)
	cfg Config
	log *slog.Logger

	start int // Prologue payload offset (heap_start)
	head  int // First free block payload offset, 0 when the list is empty

	stats Stats

	// Test hook: called with the byte count after each successful extension.
	onExtend func(int)
}

// Stats counts allocator activity since New.
type Stats struct {
	AllocCalls       int `json:"alloc_calls"`       // Alloc() calls with size > 0
	AllocFastPath    int `json:"alloc_fast_path"`   // Satisfied from the free list
	AllocSlowPath    int `json:"alloc_slow_path"`   // Required a heap extension
	FreeCalls        int `json:"free_calls"`        // Free() calls with a non-nil pointer
	ReallocCalls     int `json:"realloc_calls"`     // Realloc() calls that moved a block
	ExtendCalls      int `json:"extend_calls"`      // Successful heap extensions, including init
	ExtendBytes      int `json:"extend_bytes"`      // Bytes obtained by extensions
	SplitCount       int `json:"split_count"`       // Blocks split by place
	CoalesceForward  int `json:"coalesce_forward"`  // Merges with the next block
	CoalesceBackward int `json:"coalesce_backward"` // Merges with the previous block
	FreeListScans    int `json:"free_list_scans"`   // Blocks visited by first-fit
	LiveBytes        int `json:"live_bytes"`        // Bytes in allocated blocks, tags included
	PeakLiveBytes    int `json:"peak_live_bytes"`   // High-water mark of LiveBytes
}

// New sets up an empty heap on r and performs the initial extension.
// r must not have been grown yet. dt may be nil. A nil cfg uses DefaultConfig.
func New(r heap.Provider, dt DirtyTracker, cfg *Config) (*ListAllocator, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	a := &ListAllocator{
		r:   r,
		dt:  dt,
		cfg: cfg.normalized(),
		log: cfg.Logger,
	}
	if a.log == nil {
		a.log = logger.L
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init writes the padding word, the prologue and the epilogue, then extends
// the heap with one free block of InitialSize bytes.
func (a *ListAllocator) init() error {
	if a.r.Size() != 0 {
		return fmt.Errorf("%w: region already holds %d bytes", ErrInit, a.r.Size())
	}
	base, err := a.r.Grow(format.InitialHeaderBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInit, err)
	}

	b := a.r.Bytes()
	format.PutWord(b, base+format.PadOffset, 0)
	format.PutWord(b, base+format.PrologueHdrOffset, format.Pack(format.PrologueSize, true))
	format.PutWord(b, base+format.PrologueFtrOffset, format.Pack(format.PrologueSize, true))
	format.PutWord(b, base+format.EpilogueHdrOffset, format.Pack(0, true))
	a.mark(base, format.InitialHeaderBytes)

	a.start = base + format.PrologueBP
	a.head = 0

	if _, err := a.extendHeap(a.cfg.InitialSize / format.WordSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInit, err)
	}

	a.log.Debug("heap initialized",
		"config", a.cfg.Name,
		"chunk", a.cfg.ChunkSize,
		"heap_size", a.r.Size())
	return nil
}

// Alloc returns a 16-byte aligned block with at least size usable bytes.
// A zero size returns Nil and a nil error without touching the heap.
func (a *ListAllocator) Alloc(size int) (Ptr, error) {
	if size == 0 {
		return Nil, nil
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if _, ok := buf.AddOverflowSafe(size, format.Overhead+format.DSizeMask); !ok {
		return Nil, fmt.Errorf("%w: %d", ErrOverflow, size)
	}

	a.stats.AllocCalls++
	asize := format.AdjustedSize(size)

	if bp := a.findFit(asize); bp != 0 {
		a.place(bp, asize)
		a.stats.AllocFastPath++
		if logAlloc {
			a.log.Debug("alloc", "size", size, "asize", asize, "ptr", bp)
		}
		return Ptr(bp), nil
	}

	// Slow path: nothing fits, grow by at least one chunk.
	extend := max(asize, a.cfg.ChunkSize)
	bp, err := a.extendHeap(extend / format.WordSize)
	if err != nil {
		a.log.Debug("alloc failed", "size", size, "asize", asize, "heap_size", a.r.Size(), "error", err)
		return Nil, err
	}
	a.place(bp, asize)
	a.stats.AllocSlowPath++
	if logAlloc {
		a.log.Debug("alloc (extended)", "size", size, "asize", asize, "ptr", bp, "extend", extend)
	}
	return Ptr(bp), nil
}

// Free releases the block at p and merges it with free neighbours.
// Free(Nil) is a no-op. p must have come from Alloc and not been freed since;
// anything else corrupts the heap.
func (a *ListAllocator) Free(p Ptr) {
	if p == Nil {
		return
	}
	a.stats.FreeCalls++

	b := a.r.Bytes()
	bp := int(p)
	size := format.BlockSize(b, bp)
	a.stats.LiveBytes -= size

	a.setTags(b, bp, size, false)
	merged := a.coalesce(b, bp)

	if logAlloc {
		a.log.Debug("free", "ptr", bp, "size", size, "merged", merged)
	}
}

// Realloc resizes the block at p by allocating a new block, copying
// min(old usable size, size) bytes and freeing p. Realloc(Nil, n) is
// Alloc(n); Realloc(p, 0) frees p and returns Nil. On error p is untouched.
func (a *ListAllocator) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return a.Alloc(size)
	}
	if size == 0 {
		a.Free(p)
		return Nil, nil
	}

	np, err := a.Alloc(size)
	if err != nil {
		return Nil, err
	}
	a.stats.ReallocCalls++

	// The region never moves, so the old payload is still valid after Alloc.
	b := a.r.Bytes()
	n := min(a.UsableSize(p), size)
	copy(b[int(np):int(np)+n], b[int(p):int(p)+n])
	a.mark(int(np), n)

	a.Free(p)
	return np, nil
}

// Calloc allocates room for n elements of size bytes each and zeroes it.
func (a *ListAllocator) Calloc(n, size int) (Ptr, error) {
	if n < 0 || size < 0 {
		return Nil, fmt.Errorf("%w: %d x %d", ErrBadSize, n, size)
	}
	total, ok := buf.MulOverflowSafe(n, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d x %d", ErrOverflow, n, size)
	}
	p, err := a.Alloc(total)
	if err != nil || p == Nil {
		return p, err
	}
	clear(a.Payload(p))
	a.mark(int(p), a.UsableSize(p))
	return p, nil
}

// Payload returns the usable bytes of the allocated block at p. The slice
// aliases the heap and stays valid until p is freed.
func (a *ListAllocator) Payload(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	b := a.r.Bytes()
	end := int(p) + format.BlockSize(b, int(p)) - format.Overhead
	return b[int(p):end:end]
}

// UsableSize returns the payload capacity of the allocated block at p.
func (a *ListAllocator) UsableSize(p Ptr) int {
	if p == Nil {
		return 0
	}
	return format.BlockSize(a.r.Bytes(), int(p)) - format.Overhead
}

// HeapSize returns the number of bytes obtained from the provider so far.
func (a *ListAllocator) HeapSize() int {
	return a.r.Size()
}

// Stats returns a snapshot of the allocator counters.
func (a *ListAllocator) Stats() Stats {
	return a.stats
}

// CheckInvariants runs the full heap checker. It returns nil for a
// consistent heap and a *verify.ValidationError otherwise.
func (a *ListAllocator) CheckInvariants() error {
	return verify.AllInvariants(a.r.Bytes(), a.start, a.head)
}

// place marks the free block bp as allocated for a request of asize bytes,
// splitting off the tail when it can stand alone as a free block.
func (a *ListAllocator) place(bp, asize int) {
	b := a.r.Bytes()
	csize := format.BlockSize(b, bp)
	a.remove(b, bp)

	if rem := csize - asize; rem >= format.MinBlockSize {
		a.setTags(b, bp, asize, true)
		next := bp + asize
		a.setTags(b, next, rem, false)
		// The old block was maximally coalesced, so next's right neighbour
		// is allocated and the remainder can go straight onto the list.
		a.insert(b, next)
		a.stats.SplitCount++
		csize = asize
	} else {
		a.setTags(b, bp, csize, true)
	}

	a.stats.LiveBytes += csize
	a.stats.PeakLiveBytes = max(a.stats.PeakLiveBytes, a.stats.LiveBytes)
}

// extendHeap grows the heap by words (rounded up to even) and returns the
// payload of the resulting free block after coalescing. On failure the heap
// is unchanged.
func (a *ListAllocator) extendHeap(words int) (int, error) {
	size := format.EvenWords(words)
	bp, err := a.r.Grow(size)
	if err != nil {
		return 0, fmt.Errorf("%w: extend by %d bytes: %w", ErrNoSpace, size, err)
	}

	// bp is the old break. Its header word is the old epilogue.
	b := a.r.Bytes()
	a.setTags(b, bp, size, false)
	epi := format.Header(bp + size)
	format.PutWord(b, epi, format.Pack(0, true))
	a.mark(epi, format.WordSize)

	a.stats.ExtendCalls++
	a.stats.ExtendBytes += size
	a.log.Debug("heap extended", "bytes", size, "heap_size", a.r.Size())
	if a.onExtend != nil {
		a.onExtend(size)
	}

	return a.coalesce(b, bp), nil
}

// coalesce merges the free block bp with whichever physical neighbours are
// free, inserts the result into the free list and returns its payload.
func (a *ListAllocator) coalesce(b []byte, bp int) int {
	prev := format.PrevBlock(b, bp)
	next := format.NextBlock(b, bp)
	prevAlloc := format.IsAllocated(b, prev)
	nextAlloc := format.IsAllocated(b, next)
	size := format.BlockSize(b, bp)

	switch {
	case prevAlloc && nextAlloc:
		// Nothing to merge.

	case prevAlloc && !nextAlloc:
		a.remove(b, next)
		size += format.BlockSize(b, next)
		a.setTags(b, bp, size, false)
		a.stats.CoalesceForward++

	case !prevAlloc && nextAlloc:
		a.remove(b, prev)
		size += format.BlockSize(b, prev)
		bp = prev
		a.setTags(b, bp, size, false)
		a.stats.CoalesceBackward++

	default:
		a.remove(b, prev)
		a.remove(b, next)
		size += format.BlockSize(b, prev) + format.BlockSize(b, next)
		bp = prev
		a.setTags(b, bp, size, false)
		a.stats.CoalesceForward++
		a.stats.CoalesceBackward++
	}

	a.insert(b, bp)
	return bp
}

// setTags writes header and footer of bp and records both words as dirty.
func (a *ListAllocator) setTags(b []byte, bp, size int, alloc bool) {
	format.SetTags(b, bp, size, alloc)
	a.mark(format.Header(bp), format.WordSize)
	a.mark(bp+size-format.DSize, format.WordSize)
}

func (a *ListAllocator) mark(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}
