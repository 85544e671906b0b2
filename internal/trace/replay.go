package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/checked"
)

var (
	// ErrUnboundID indicates a free or realloc of an id with no live block.
	ErrUnboundID = errors.New("trace: id not allocated")

	// ErrReboundID indicates an alloc of an id that is still live.
	ErrReboundID = errors.New("trace: id already allocated")

	// ErrPayloadCorrupt indicates a block's contents changed while it was live.
	ErrPayloadCorrupt = errors.New("trace: payload corrupted")
)

// Result summarizes a replay.
type Result struct {
	Ops         int     `json:"ops"`
	Allocs      int     `json:"allocs"`
	Frees       int     `json:"frees"`
	Reallocs    int     `json:"reallocs"`
	PeakPayload int     `json:"peak_payload"` // max sum of live requested sizes
	HeapSize    int     `json:"heap_size"`
	Utilization float64 `json:"utilization"` // PeakPayload / HeapSize
}

// Player applies a trace one op at a time. Each block is filled with a
// byte derived from its id and checked when it is freed or moved, so
// overlapping blocks show up as ErrPayloadCorrupt.
type Player struct {
	tr    *Trace
	c     *checked.Allocator
	pos   int
	res   Result
	err   error // failure of the op at pos; the op is never reissued
	ptrs  map[int]alloc.Ptr
	sizes map[int]int
}

// NewPlayer prepares tr for replay against c.
func NewPlayer(tr *Trace, c *checked.Allocator) *Player {
	return &Player{
		tr:    tr,
		c:     c,
		ptrs:  make(map[int]alloc.Ptr, tr.IDs),
		sizes: make(map[int]int, tr.IDs),
	}
}

// Done reports whether every op has been applied.
func (p *Player) Done() bool { return p.pos >= len(p.tr.Ops) }

// Pos returns the number of ops applied so far.
func (p *Player) Pos() int { return p.pos }

// Step applies the next op and returns it. A failed op is not counted and
// the player stays on it: later calls return the same error without applying
// the op again, since it may already have changed the heap.
func (p *Player) Step() (Op, error) {
	if p.Done() {
		return Op{}, io.EOF
	}
	op := p.tr.Ops[p.pos]
	if p.err != nil {
		return op, p.err
	}
	if err := step(p.c, op, p.ptrs, p.sizes); err != nil {
		p.err = fmt.Errorf("trace line %d (%s %d): %w", op.Line, op.Kind, op.ID, err)
		return op, p.err
	}
	p.pos++
	p.res.Ops++
	switch op.Kind {
	case OpAlloc:
		p.res.Allocs++
	case OpFree:
		p.res.Frees++
	case OpRealloc:
		p.res.Reallocs++
	}
	return op, nil
}

// Result returns the totals for the ops applied so far.
func (p *Player) Result() Result {
	res := p.res
	res.PeakPayload = p.c.PeakBytes()
	res.HeapSize = p.c.Inner().HeapSize()
	if res.HeapSize > 0 {
		res.Utilization = float64(res.PeakPayload) / float64(res.HeapSize)
	}
	return res
}

// Err returns the error that stopped the player, if any.
func (p *Player) Err() error { return p.err }

// Addr returns the block currently bound to id.
func (p *Player) Addr(id int) (alloc.Ptr, bool) {
	ptr, ok := p.ptrs[id]
	return ptr, ok
}

// Replay runs every op of tr against c, stopping at the first error, which
// is reported with its trace line.
func Replay(tr *Trace, c *checked.Allocator) (Result, error) {
	p := NewPlayer(tr, c)
	for !p.Done() {
		if _, err := p.Step(); err != nil {
			return p.Result(), err
		}
	}
	return p.Result(), nil
}

func step(c *checked.Allocator, op Op, ptrs map[int]alloc.Ptr, sizes map[int]int) error {
	fill := pattern(op.ID)

	switch op.Kind {
	case OpAlloc:
		if _, ok := ptrs[op.ID]; ok {
			return ErrReboundID
		}
		p, err := c.Alloc(op.Size)
		if err != nil {
			return err
		}
		// A zero-size request binds id to Nil, which frees as a no-op.
		fillBytes(c.Payload(p)[:op.Size], fill)
		ptrs[op.ID] = p
		sizes[op.ID] = op.Size

	case OpFree:
		p, ok := ptrs[op.ID]
		if !ok {
			return ErrUnboundID
		}
		if err := checkBytes(c.Payload(p)[:sizes[op.ID]], fill); err != nil {
			return err
		}
		err := c.Free(p)
		if _, live := c.Size(p); !live {
			delete(ptrs, op.ID)
			delete(sizes, op.ID)
		}
		if err != nil {
			return err
		}

	case OpRealloc:
		p, ok := ptrs[op.ID]
		if !ok {
			return ErrUnboundID
		}
		old := sizes[op.ID]
		if err := checkBytes(c.Payload(p)[:old], fill); err != nil {
			return err
		}
		np, err := c.Realloc(p, op.Size)
		if err != nil {
			// The inner realloc may have run before the failure was found
			if _, live := c.Size(np); np != alloc.Nil && live {
				ptrs[op.ID] = np
				sizes[op.ID] = op.Size
			} else if _, live := c.Size(p); !live {
				delete(ptrs, op.ID)
				delete(sizes, op.ID)
			}
			return err
		}
		keep := min(old, op.Size)
		if err := checkBytes(c.Payload(np)[:keep], fill); err != nil {
			return fmt.Errorf("realloc lost contents: %w", err)
		}
		fillBytes(c.Payload(np)[keep:op.Size], fill)
		ptrs[op.ID] = np
		sizes[op.ID] = op.Size
	}
	return nil
}

func pattern(id int) byte {
	return byte(id*31 + 7)
}

func fillBytes(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func checkBytes(b []byte, v byte) error {
	for i, c := range b {
		if c != v {
			return fmt.Errorf("%w: byte %d is 0x%02X, want 0x%02X", ErrPayloadCorrupt, i, c, v)
		}
	}
	return nil
}
