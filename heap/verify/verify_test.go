package verify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

type testBlock struct {
	size  int
	alloc bool
}

// testHeap is a hand-built heap: sentinels, the given blocks, and a free
// list linking the free blocks in address order.
type testHeap struct {
	data  []byte
	start int
	head  int
	bps   []int
}

func buildHeap(t *testing.T, blocks ...testBlock) *testHeap {
	t.Helper()

	total := format.InitialHeaderBytes
	for _, b := range blocks {
		total += b.size
	}
	h := &testHeap{data: make([]byte, total), start: format.PrologueBP}

	format.PutWord(h.data, format.PrologueHdrOffset, format.Pack(format.PrologueSize, true))
	format.PutWord(h.data, format.PrologueFtrOffset, format.Pack(format.PrologueSize, true))

	bp := format.FirstBP
	for _, b := range blocks {
		format.SetTags(h.data, bp, b.size, b.alloc)
		h.bps = append(h.bps, bp)
		bp += b.size
	}
	format.PutWord(h.data, format.Header(bp), format.Pack(0, true))

	prev := 0
	for i, b := range blocks {
		if b.alloc {
			continue
		}
		cur := h.bps[i]
		if prev == 0 {
			h.head = cur
		} else {
			format.SetNextFree(h.data, prev, cur)
		}
		format.SetPrevFree(h.data, cur, prev)
		format.SetNextFree(h.data, cur, 0)
		prev = cur
	}

	require.NoError(t, AllInvariants(h.data, h.start, h.head), "builder must produce a valid heap")
	return h
}

func (h *testHeap) check() error {
	return AllInvariants(h.data, h.start, h.head)
}

func requireKind(t *testing.T, err error, want Invariant, offset int) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, want, verr.Invariant, "got %v", err)
	require.Equal(t, offset, verr.Offset, "got %v", err)
}

func TestAllInvariants_Valid(t *testing.T) {
	h := buildHeap(t,
		testBlock{32, true},
		testBlock{64, false},
		testBlock{48, true},
		testBlock{4000, false},
	)
	require.NoError(t, h.check())
	require.NoError(t, Blocks(h.data, h.start))
	require.NoError(t, FreeList(h.data, h.start, h.head))
}

func TestAllInvariants_EmptyHeap(t *testing.T) {
	h := buildHeap(t)
	require.NoError(t, h.check())
}

func TestSentinels_Prologue(t *testing.T) {
	h := buildHeap(t, testBlock{32, false})
	format.PutWord(h.data, format.PrologueHdrOffset, format.Pack(32, true))

	requireKind(t, h.check(), Prologue, h.start)
}

func TestSentinels_TooSmall(t *testing.T) {
	requireKind(t, AllInvariants(make([]byte, 8), format.PrologueBP, 0), Prologue, -1)
}

func TestSentinels_Epilogue(t *testing.T) {
	h := buildHeap(t, testBlock{32, true})
	format.PutWord(h.data, len(h.data)-format.WordSize, format.Pack(0, false))

	requireKind(t, h.check(), Epilogue, len(h.data))
}

func TestBlocks_TagMismatch(t *testing.T) {
	h := buildHeap(t, testBlock{32, true}, testBlock{64, true}, testBlock{32, false})
	bp := h.bps[1]
	format.PutWord(h.data, bp+64-format.DSize, format.Pack(64, false))

	err := h.check()
	requireKind(t, err, TagMismatch, bp)
	require.Contains(t, err.Error(), "header and footer differ")
}

func TestBlocks_BadSize(t *testing.T) {
	tests := []struct {
		name string
		tag  uint64
		want string
	}{
		{"unaligned", format.Pack(40, true), "not a multiple of 16"},
		{"unaligned free", format.Pack(72, false), "not a multiple of 16"},
		{"below minimum", format.Pack(16, true), "invalid block size 16"},
		{"negative", 1<<63 | 1, "invalid block size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := buildHeap(t, testBlock{64, true}, testBlock{32, false})
			bp := h.bps[0]
			// Footer matches so only the size itself is wrong
			format.PutWord(h.data, format.Header(bp), tt.tag)
			format.PutWord(h.data, bp+64-format.DSize, tt.tag)

			err := h.check()
			requireKind(t, err, BlockSize, bp)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBlocks_Bounds(t *testing.T) {
	h := buildHeap(t, testBlock{64, true}, testBlock{32, false})
	format.PutWord(h.data, format.Header(h.bps[1]), format.Pack(1<<20, false))

	requireKind(t, h.check(), Bounds, h.bps[1])
}

func TestBlocks_PrematureEpilogue(t *testing.T) {
	h := buildHeap(t, testBlock{64, true}, testBlock{32, true})
	format.PutWord(h.data, format.Header(h.bps[1]), format.Pack(0, true))

	requireKind(t, h.check(), Epilogue, h.bps[1])
}

func TestBlocks_NotCoalesced(t *testing.T) {
	h := buildHeap(t, testBlock{32, true}, testBlock{32, true}, testBlock{32, true}, testBlock{32, true})
	format.SetTags(h.data, h.bps[1], 32, false)
	format.SetTags(h.data, h.bps[2], 32, false)

	requireKind(t, h.check(), NotCoalesced, h.bps[2])
}

func TestFreeList_FreeNotListed(t *testing.T) {
	h := buildHeap(t, testBlock{32, true}, testBlock{32, true}, testBlock{32, true}, testBlock{32, false})
	format.SetTags(h.data, h.bps[1], 32, false)

	err := h.check()
	requireKind(t, err, FreeNotListed, h.bps[1])
}

func TestFreeList_AllocatedInList(t *testing.T) {
	h := buildHeap(t, testBlock{32, true}, testBlock{32, false}, testBlock{32, true})
	format.SetTags(h.data, h.bps[1], 32, true)

	requireKind(t, h.check(), AllocatedInList, h.bps[1])
}

func TestFreeList_Cycle(t *testing.T) {
	h := buildHeap(t,
		testBlock{32, false},
		testBlock{32, true},
		testBlock{32, false},
		testBlock{32, true},
	)
	// head -> bps[0] -> bps[2] -> back to bps[0]
	format.SetNextFree(h.data, h.bps[2], h.bps[0])

	requireKind(t, h.check(), ListCycle, h.bps[0])
}

func TestFreeList_BadPrevLink(t *testing.T) {
	h := buildHeap(t,
		testBlock{32, false},
		testBlock{32, true},
		testBlock{32, false},
		testBlock{32, true},
	)
	format.SetPrevFree(h.data, h.bps[2], 0)

	err := h.check()
	requireKind(t, err, ListLinks, h.bps[2])

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, h.bps[0], verr.Details["expected"])
}

func TestFreeList_PointsIntoPayload(t *testing.T) {
	h := buildHeap(t, testBlock{64, false}, testBlock{32, true})
	h.head = h.bps[0] + format.DSize

	requireKind(t, h.check(), ListLinks, h.bps[0]+format.DSize)
}

func TestKindOf(t *testing.T) {
	h := buildHeap(t, testBlock{32, true}, testBlock{32, false}, testBlock{32, true})
	format.SetTags(h.data, h.bps[1], 32, true)

	wrapped := fmt.Errorf("after free: %w", h.check())
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, AllocatedInList, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{Invariant: ListCycle, Message: "loop", Offset: 0x40}
	require.Equal(t, "ListCycle at offset 0x40: loop", err.Error())

	err = &ValidationError{Invariant: Prologue, Message: "short", Offset: -1}
	require.Equal(t, "Prologue: short", err.Error())
}
