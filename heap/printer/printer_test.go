package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

// newFragmentedHeap returns an allocator holding an allocated block, a free
// hole, another allocated block and the free tail.
func newFragmentedHeap(t *testing.T) *alloc.ListAllocator {
	t.Helper()
	a, err := alloc.New(heap.NewRegion(1<<20), nil, nil)
	require.NoError(t, err)

	_, err = a.Alloc(8) // 32 @ 0x20
	require.NoError(t, err)
	hole, err := a.Alloc(100) // 128 @ 0x40
	require.NoError(t, err)
	_, err = a.Alloc(8) // 32 @ 0xC0
	require.NoError(t, err)
	a.Free(hole)
	return a
}

func TestPrintBlocks_Text(t *testing.T) {
	a := newFragmentedHeap(t)
	var buf bytes.Buffer

	require.NoError(t, New(a, &buf, DefaultOptions()).PrintBlocks())
	out := buf.String()

	assert.Contains(t, out, "0x00000020")
	assert.Contains(t, out, "0x00000040")
	assert.Contains(t, out, "alloc")
	assert.Contains(t, out, "free")
	assert.Contains(t, out, "heap 4,128 bytes: 4 blocks (2 allocated, 2 free)")
	assert.Contains(t, out, "largest free 3,904")
}

func TestPrintBlocks_FreeOnly(t *testing.T) {
	a := newFragmentedHeap(t)
	var buf bytes.Buffer

	opts := DefaultOptions()
	opts.FreeOnly = true
	opts.Summary = false
	require.NoError(t, New(a, &buf, opts).PrintBlocks())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "header plus two free blocks")
	assert.NotContains(t, buf.String(), "alloc")
}

func TestPrintBlocks_JSON(t *testing.T) {
	a := newFragmentedHeap(t)
	var buf bytes.Buffer

	require.NoError(t, New(a, &buf, Options{Format: FormatJSON}).PrintBlocks())

	var dump jsonDump
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	assert.Equal(t, a.Blocks(), dump.Blocks)
	assert.Equal(t, a.FreeList(), dump.FreeList)
	assert.Equal(t, 2, dump.Summary.Free)
	assert.Equal(t, 4128, dump.Summary.HeapSize)
}

func TestPrintStats(t *testing.T) {
	a := newFragmentedHeap(t)

	var text bytes.Buffer
	require.NoError(t, New(a, &text, DefaultOptions()).PrintStats())
	assert.Contains(t, text.String(), "Heap size:")
	assert.Contains(t, text.String(), "4,128")
	assert.Contains(t, text.String(), "Splits:")

	var js bytes.Buffer
	require.NoError(t, New(a, &js, Options{Format: FormatJSON}).PrintStats())
	var got jsonStats
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, a.Stats(), got.Stats)
	assert.Equal(t, 2, got.FreeBlocks)
}

func TestPrintHistogram(t *testing.T) {
	a := newFragmentedHeap(t)

	var text bytes.Buffer
	require.NoError(t, New(a, &text, DefaultOptions()).PrintHistogram())
	assert.Contains(t, text.String(), "<= 255")
	assert.Contains(t, text.String(), "<= 4,095")

	var js bytes.Buffer
	require.NoError(t, New(a, &js, Options{Format: FormatJSON}).PrintHistogram())
	var got []alloc.SizeClassCount
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, a.Histogram(nil), got)
}

func TestPrint_UnknownFormat(t *testing.T) {
	a := newFragmentedHeap(t)
	p := New(a, &bytes.Buffer{}, Options{Format: "yaml"})

	assert.Error(t, p.PrintBlocks())
	assert.Error(t, p.PrintStats())
	assert.Error(t, p.PrintHistogram())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]alloc.BlockInfo{
		{Addr: 32, Size: 32, Allocated: true},
		{Addr: 64, Size: 64},
		{Addr: 128, Size: 48, Allocated: true},
		{Addr: 176, Size: 96},
	}, 304)

	assert.Equal(t, Summary{
		HeapSize:    304,
		Blocks:      4,
		Allocated:   2,
		Free:        2,
		AllocBytes:  80,
		FreeBytes:   160,
		LargestFree: 96,
	}, s)
}
