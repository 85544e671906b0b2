package checked

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Heap is the allocator surface the wrapper needs. *alloc.ListAllocator
// implements it.
type Heap interface {
	Alloc(size int) (alloc.Ptr, error)
	Free(p alloc.Ptr)
	Realloc(p alloc.Ptr, size int) (alloc.Ptr, error)
	Payload(p alloc.Ptr) []byte
	HeapSize() int
	CheckInvariants() error
}

var _ Heap = (*alloc.ListAllocator)(nil)

// Options controls how much checking each operation pays for.
type Options struct {
	// Invariants runs the full heap checker after every mutating call.
	Invariants bool

	// Logger receives a Warn record for every detected misuse. nil uses
	// the package logger.
	Logger *slog.Logger
}

// Allocator validates every pointer passed to Free and Realloc against the
// set of live allocations.
type Allocator struct {
	h    Heap
	opts Options
	log  *slog.Logger

	live    map[alloc.Ptr]int      // payload -> requested size
	retired map[alloc.Ptr]struct{} // freed and not handed out again

	liveBytes int // Sum of requested sizes of live blocks
	peakBytes int
}

// New wraps h. h must not have live allocations made outside the wrapper.
func New(h Heap, opts Options) *Allocator {
	log := opts.Logger
	if log == nil {
		log = logger.L
	}
	return &Allocator{
		h:       h,
		opts:    opts,
		log:     log,
		live:    make(map[alloc.Ptr]int),
		retired: make(map[alloc.Ptr]struct{}),
	}
}

// Alloc allocates size bytes. Besides the inner allocator's errors it
// reports ErrOverlap when the returned address is already live, and any
// invariant violation found afterwards.
func (c *Allocator) Alloc(size int) (alloc.Ptr, error) {
	p, err := c.h.Alloc(size)
	if err != nil || p == alloc.Nil {
		return p, err
	}
	if err := c.track(p, size); err != nil {
		return p, err
	}
	return p, c.verify("alloc", p)
}

// Free releases p. Free(Nil) is a no-op. Unknown, misaligned, out-of-range
// and already freed pointers are rejected and the heap is left untouched.
func (c *Allocator) Free(p alloc.Ptr) error {
	if p == alloc.Nil {
		return nil
	}
	if err := c.validate("free", p); err != nil {
		return err
	}
	c.h.Free(p)
	c.untrack(p)
	return c.verify("free", p)
}

// Realloc resizes p with the inner allocator's semantics after validating p.
func (c *Allocator) Realloc(p alloc.Ptr, size int) (alloc.Ptr, error) {
	if p == alloc.Nil {
		return c.Alloc(size)
	}
	if err := c.validate("realloc", p); err != nil {
		return alloc.Nil, err
	}

	np, err := c.h.Realloc(p, size)
	if err != nil {
		return alloc.Nil, err
	}
	c.untrack(p)
	if np == alloc.Nil {
		return alloc.Nil, c.verify("realloc", p)
	}
	if err := c.track(np, size); err != nil {
		return np, err
	}
	return np, c.verify("realloc", np)
}

// Payload returns the usable bytes of live block p, or nil if p is not live.
func (c *Allocator) Payload(p alloc.Ptr) []byte {
	if _, ok := c.live[p]; !ok {
		return nil
	}
	return c.h.Payload(p)
}

// Size returns the requested size of live block p and whether p is live.
func (c *Allocator) Size(p alloc.Ptr) (int, bool) {
	n, ok := c.live[p]
	return n, ok
}

// Live returns the number of live allocations.
func (c *Allocator) Live() int { return len(c.live) }

// LiveBytes returns the sum of requested sizes of live allocations.
func (c *Allocator) LiveBytes() int { return c.liveBytes }

// PeakBytes returns the high-water mark of LiveBytes.
func (c *Allocator) PeakBytes() int { return c.peakBytes }

// Inner returns the wrapped allocator.
func (c *Allocator) Inner() Heap { return c.h }

func (c *Allocator) validate(op string, p alloc.Ptr) error {
	var err error
	switch {
	case int(p) < format.FirstBP || int(p) >= c.h.HeapSize():
		err = ErrOutOfRange
	case int(p)%format.DSize != 0:
		err = ErrMisaligned
	default:
		if _, ok := c.live[p]; ok {
			return nil
		}
		if _, ok := c.retired[p]; ok {
			err = ErrDoubleFree
		} else {
			err = ErrUnknownPointer
		}
	}
	c.log.Warn("heap misuse", "op", op, "ptr", int(p), "error", err)
	return fmt.Errorf("%s 0x%X: %w", op, int(p), err)
}

func (c *Allocator) track(p alloc.Ptr, size int) error {
	if _, ok := c.live[p]; ok {
		c.log.Warn("heap misuse", "op", "alloc", "ptr", int(p), "error", ErrOverlap)
		return fmt.Errorf("alloc 0x%X: %w", int(p), ErrOverlap)
	}
	delete(c.retired, p)
	c.live[p] = size
	c.liveBytes += size
	c.peakBytes = max(c.peakBytes, c.liveBytes)
	return nil
}

func (c *Allocator) untrack(p alloc.Ptr) {
	c.liveBytes -= c.live[p]
	delete(c.live, p)
	c.retired[p] = struct{}{}
}

func (c *Allocator) verify(op string, p alloc.Ptr) error {
	if !c.opts.Invariants {
		return nil
	}
	if err := c.h.CheckInvariants(); err != nil {
		return fmt.Errorf("after %s 0x%X: %w", op, int(p), err)
	}
	return nil
}
