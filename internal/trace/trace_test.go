package trace

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/checked"
)

func newChecked(t *testing.T, limit int) *checked.Allocator {
	t.Helper()
	a, err := alloc.New(heap.NewRegion(limit), nil, nil)
	require.NoError(t, err)
	return checked.New(a, checked.Options{Invariants: true})
}

func TestParse_HeaderAndComments(t *testing.T) {
	tr, err := ParseFile("testdata/short.rep")
	require.NoError(t, err)

	assert.Equal(t, "testdata/short.rep", tr.Name)
	require.Len(t, tr.Ops, 8)
	assert.Equal(t, Op{Kind: OpAlloc, ID: 0, Size: 2040, Line: 5}, tr.Ops[0])
	assert.Equal(t, Op{Kind: OpFree, ID: 1, Line: 7}, tr.Ops[2])
	assert.Equal(t, Op{Kind: OpRealloc, ID: 0, Size: 4072, Line: 9}, tr.Ops[4])
	assert.Equal(t, 3, tr.IDs)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown_op", "x 1 2", "unknown op"},
		{"long_op", "alloc 1 2", "unknown op"},
		{"free_with_size", "f 1 2", "free takes 1 arguments"},
		{"alloc_missing_size", "a 1", "alloc takes 2 arguments"},
		{"bad_id", "a one 2", "bad id"},
		{"negative_size", "a 1 -4", "bad size"},
		{"header_after_ops", "a 1 8\n42", "unknown op"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), tt.want)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Positive(t, perr.Line)
		})
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("testdata/missing.rep")
	require.Error(t, err)
}

func TestParseFile_BadLine(t *testing.T) {
	_, err := ParseFile("testdata/bad.rep")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestReplay_Short(t *testing.T) {
	tr, err := ParseFile("testdata/short.rep")
	require.NoError(t, err)
	c := newChecked(t, heap.DefaultMaxHeap)

	res, err := Replay(tr, c)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Ops)
	assert.Equal(t, 4, res.Allocs)
	assert.Equal(t, 3, res.Frees)
	assert.Equal(t, 1, res.Reallocs)
	assert.Equal(t, 4072+48, res.PeakPayload)
	assert.Equal(t, c.Inner().HeapSize(), res.HeapSize)
	assert.InDelta(t, float64(res.PeakPayload)/float64(res.HeapSize), res.Utilization, 1e-9)
	assert.Equal(t, 1, c.Live(), "id 1 stays allocated")
}

func TestReplay_ReallocPreservesContents(t *testing.T) {
	tr, err := ParseFile("testdata/realloc.rep")
	require.NoError(t, err)

	res, err := Replay(tr, newChecked(t, heap.DefaultMaxHeap))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Reallocs)
	assert.Equal(t, 2048+200, res.PeakPayload)
}

func TestReplay_ZeroSize(t *testing.T) {
	tr, err := Parse(strings.NewReader("a 0 0\nr 0 32\nr 0 0\nf 0\n"))
	require.NoError(t, err)

	c := newChecked(t, heap.DefaultMaxHeap)
	_, err = Replay(tr, c)
	require.NoError(t, err)
	assert.Zero(t, c.Live())
}

func TestReplay_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  error
	}{
		{"free_unbound", "a 0 8\nf 1\n", heap.DefaultMaxHeap, ErrUnboundID},
		{"realloc_unbound", "r 3 8\n", heap.DefaultMaxHeap, ErrUnboundID},
		{"rebind", "a 0 8\na 0 8\n", heap.DefaultMaxHeap, ErrReboundID},
		{"double_free", "a 0 8\nf 0\nf 0\n", heap.DefaultMaxHeap, ErrUnboundID},
		{"out_of_memory", "a 0 100000\n", 1 << 16, alloc.ErrNoSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)

			_, err = Replay(tr, newChecked(t, tt.limit))
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "trace line")
		})
	}
}

func TestCheckBytes(t *testing.T) {
	b := []byte{7, 7, 7, 9}
	err := checkBytes(b, 7)
	require.ErrorIs(t, err, ErrPayloadCorrupt)
	assert.Contains(t, err.Error(), "byte 3")
	assert.NoError(t, checkBytes(b[:3], 7))
	assert.False(t, errors.Is(checkBytes(nil, 1), ErrPayloadCorrupt))
}

func TestPlayer_StepByStep(t *testing.T) {
	tr, err := Parse(strings.NewReader("a 0 40\na 1 40\nf 0\nf 1\n"))
	require.NoError(t, err)
	c := newChecked(t, heap.DefaultMaxHeap)
	p := NewPlayer(tr, c)

	op, err := p.Step()
	require.NoError(t, err)
	assert.Equal(t, OpAlloc, op.Kind)
	addr, ok := p.Addr(0)
	require.True(t, ok)
	assert.Equal(t, 1, c.Live())

	for !p.Done() {
		_, err := p.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, 4, p.Pos())
	_, ok = p.Addr(0)
	assert.False(t, ok, "id 0 freed")
	assert.NotEqual(t, alloc.Nil, addr)

	_, err = p.Step()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, Result{Ops: 4, Allocs: 2, Frees: 2, PeakPayload: 80, HeapSize: c.Inner().HeapSize(),
		Utilization: 80 / float64(c.Inner().HeapSize())}, p.Result())
}

func TestPlayer_FailedStepDoesNotAdvance(t *testing.T) {
	tr, err := Parse(strings.NewReader("f 9\n"))
	require.NoError(t, err)
	p := NewPlayer(tr, newChecked(t, heap.DefaultMaxHeap))

	_, err = p.Step()
	require.ErrorIs(t, err, ErrUnboundID)
	assert.Zero(t, p.Pos())
	assert.False(t, p.Done())
}

var errCorruptAfterFree = errors.New("heap corrupted by free")

// corruptingHeap reports an invariant failure once any block was freed.
type corruptingHeap struct {
	*alloc.ListAllocator
	freed bool
}

func (h *corruptingHeap) Free(p alloc.Ptr) {
	h.ListAllocator.Free(p)
	h.freed = true
}

func (h *corruptingHeap) CheckInvariants() error {
	if h.freed {
		return errCorruptAfterFree
	}
	return h.ListAllocator.CheckInvariants()
}

func TestPlayer_FailedFreeIsNotReissued(t *testing.T) {
	tr, err := Parse(strings.NewReader("a 0 40\nf 0\na 1 40\n"))
	require.NoError(t, err)
	a, err := alloc.New(heap.NewRegion(heap.DefaultMaxHeap), nil, nil)
	require.NoError(t, err)
	c := checked.New(&corruptingHeap{ListAllocator: a}, checked.Options{Invariants: true})
	p := NewPlayer(tr, c)

	_, err = p.Step()
	require.NoError(t, err)

	_, err = p.Step()
	require.ErrorIs(t, err, errCorruptAfterFree)
	assert.Contains(t, err.Error(), "trace line 2")
	assert.Equal(t, 1, p.Pos())
	assert.Zero(t, c.Live(), "inner free ran")
	_, bound := p.Addr(0)
	assert.False(t, bound, "freed block must not stay bound")

	// Retrying reports the original failure, not a double free
	_, retry := p.Step()
	assert.ErrorIs(t, retry, errCorruptAfterFree)
	assert.NotErrorIs(t, retry, checked.ErrDoubleFree)
	assert.Equal(t, 1, p.Pos())
	assert.Equal(t, err, p.Err())
}
