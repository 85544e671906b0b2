package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Invariant names a class of heap corruption.
type Invariant string

// Invariant kinds reported in ValidationError.Invariant.
const (
	Prologue        Invariant = "Prologue"
	Epilogue        Invariant = "Epilogue"
	Alignment       Invariant = "Alignment"
	BlockSize       Invariant = "BlockSize"
	Bounds          Invariant = "Bounds"
	TagMismatch     Invariant = "TagMismatch"
	NotCoalesced    Invariant = "NotCoalesced"
	FreeNotListed   Invariant = "FreeNotListed"
	AllocatedInList Invariant = "AllocatedInList"
	ListCycle       Invariant = "ListCycle"
	ListLinks       Invariant = "ListLinks"
)

// ValidationError describes the first violated invariant found.
type ValidationError struct {
	Invariant Invariant
	Message   string
	Offset    int
	Details   map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Invariant, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Invariant, e.Message)
}

// KindOf returns the invariant carried by err, if err wraps a *ValidationError.
func KindOf(err error) (Invariant, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Invariant, true
	}
	return "", false
}

// AllInvariants validates the whole heap in one call. start is the
// prologue payload offset and head the first free block (0 for an empty
// list). Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, start, head int) error {
	if err := Sentinels(data, start); err != nil {
		return err
	}
	blocks, err := walk(data, start)
	if err != nil {
		return err
	}
	return checkFreeList(data, head, blocks)
}

// Sentinels validates the prologue block at start and the epilogue header
// in the last word of data.
func Sentinels(data []byte, start int) error {
	if start < format.WordSize || start+format.DSize > len(data) {
		return &ValidationError{
			Invariant: Prologue,
			Message:   fmt.Sprintf("heap too small: %d bytes for prologue at %d", len(data), start),
			Offset:    -1,
		}
	}

	want := format.Pack(format.PrologueSize, true)
	if hdr := format.ReadWord(data, format.Header(start)); hdr != want {
		return &ValidationError{
			Invariant: Prologue,
			Message:   fmt.Sprintf("bad prologue header 0x%X (want 0x%X)", hdr, want),
			Offset:    start,
		}
	}
	if ftr := format.ReadWord(data, start); ftr != want {
		return &ValidationError{
			Invariant: Prologue,
			Message:   fmt.Sprintf("bad prologue footer 0x%X (want 0x%X)", ftr, want),
			Offset:    start,
		}
	}

	epi := len(data) - format.WordSize
	if tag := format.ReadWord(data, epi); tag != format.Pack(0, true) {
		return &ValidationError{
			Invariant: Epilogue,
			Message:   fmt.Sprintf("bad epilogue header 0x%X (want 0x1)", tag),
			Offset:    epi + format.WordSize,
		}
	}
	return nil
}

// Blocks validates every block between the prologue and the epilogue:
// alignment, size, bounds, tag agreement and maximal coalescing.
func Blocks(data []byte, start int) error {
	if err := Sentinels(data, start); err != nil {
		return err
	}
	_, err := walk(data, start)
	return err
}

// blockSet records every block found by walk.
type blockSet struct {
	allocated map[int]bool // payload offset -> allocated bit
	free      []int        // free blocks in address order
}

func walk(data []byte, start int) (*blockSet, error) {
	set := &blockSet{allocated: make(map[int]bool)}
	end := len(data)
	prevFree := false

	for bp := start + format.PrologueSize; ; {
		if bp%format.DSize != 0 {
			return nil, &ValidationError{
				Invariant: Alignment,
				Message:   fmt.Sprintf("payload not %d-byte aligned", format.DSize),
				Offset:    bp,
			}
		}
		if bp > end {
			return nil, &ValidationError{
				Invariant: Bounds,
				Message:   fmt.Sprintf("block header beyond heap end 0x%X", end),
				Offset:    bp,
			}
		}

		hdr := format.ReadWord(data, format.Header(bp))
		if stray := hdr & (format.DSizeMask &^ format.AllocBit); stray != 0 {
			return nil, &ValidationError{
				Invariant: BlockSize,
				Message:   fmt.Sprintf("block size %d is not a multiple of %d", hdr&^format.AllocBit, format.DSize),
				Offset:    bp,
				Details:   map[string]any{"header": hdr},
			}
		}
		size := format.TagSize(hdr)
		if size == 0 {
			if bp != end {
				return nil, &ValidationError{
					Invariant: Epilogue,
					Message:   fmt.Sprintf("zero-size block before heap end 0x%X", end),
					Offset:    bp,
				}
			}
			return set, nil
		}

		if size < format.MinBlockSize {
			return nil, &ValidationError{
				Invariant: BlockSize,
				Message:   fmt.Sprintf("invalid block size %d", size),
				Offset:    bp,
				Details:   map[string]any{"size": size},
			}
		}
		if bp+size > end {
			return nil, &ValidationError{
				Invariant: Bounds,
				Message:   fmt.Sprintf("block of %d bytes crosses heap end 0x%X", size, end),
				Offset:    bp,
				Details:   map[string]any{"size": size, "end": end},
			}
		}

		ftr := format.ReadWord(data, bp+size-format.DSize)
		if hdr != ftr {
			return nil, &ValidationError{
				Invariant: TagMismatch,
				Message:   "header and footer differ",
				Offset:    bp,
				Details:   map[string]any{"header": hdr, "footer": ftr},
			}
		}

		alloc := format.TagAlloc(hdr)
		if !alloc {
			if prevFree {
				return nil, &ValidationError{
					Invariant: NotCoalesced,
					Message:   "free block follows a free block",
					Offset:    bp,
					Details:   map[string]any{"prev": format.PrevBlock(data, bp)},
				}
			}
			set.free = append(set.free, bp)
		}
		set.allocated[bp] = alloc
		prevFree = !alloc
		bp += size
	}
}

// FreeList validates the free list starting at head against the blocks
// found by walking the heap from start.
func FreeList(data []byte, start, head int) error {
	if err := Sentinels(data, start); err != nil {
		return err
	}
	blocks, err := walk(data, start)
	if err != nil {
		return err
	}
	return checkFreeList(data, head, blocks)
}

func checkFreeList(data []byte, head int, blocks *blockSet) error {
	seen := make(map[int]bool, len(blocks.free))
	prev := 0

	for bp := head; bp != 0; bp = format.NextFree(data, bp) {
		allocated, ok := blocks.allocated[bp]
		switch {
		case !ok:
			return &ValidationError{
				Invariant: ListLinks,
				Message:   "free list entry is not a block",
				Offset:    bp,
				Details:   map[string]any{"prev": prev},
			}
		case seen[bp]:
			return &ValidationError{
				Invariant: ListCycle,
				Message:   fmt.Sprintf("free list revisits block after %d entries", len(seen)),
				Offset:    bp,
				Details:   map[string]any{"prev": prev},
			}
		case allocated:
			return &ValidationError{
				Invariant: AllocatedInList,
				Message:   "allocated block on the free list",
				Offset:    bp,
			}
		}

		if back := format.PrevFree(data, bp); back != prev {
			return &ValidationError{
				Invariant: ListLinks,
				Message:   fmt.Sprintf("prev link 0x%X, want 0x%X", back, prev),
				Offset:    bp,
				Details:   map[string]any{"prev_link": back, "expected": prev},
			}
		}

		seen[bp] = true
		prev = bp
	}

	for _, bp := range blocks.free {
		if !seen[bp] {
			return &ValidationError{
				Invariant: FreeNotListed,
				Message:   "free block missing from the free list",
				Offset:    bp,
				Details:   map[string]any{"listed": len(seen), "free": len(blocks.free)},
			}
		}
	}
	return nil
}
