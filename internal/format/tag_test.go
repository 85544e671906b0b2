package format

import "testing"

func TestPackRoundTrip(t *testing.T) {
	for _, size := range []int{0, 16, 32, 48, 4096, 1 << 30} {
		for _, alloc := range []bool{false, true} {
			tag := Pack(size, alloc)
			if TagSize(tag) != size || TagAlloc(tag) != alloc {
				t.Fatalf("Pack(%d, %v) decoded as (%d, %v)", size, alloc, TagSize(tag), TagAlloc(tag))
			}
		}
	}
}

// newBlocks lays out pad, prologue, the given blocks, and an epilogue, and
// returns the buffer plus the payload offset of each block.
func newBlocks(t *testing.T, sizes []int, alloc []bool) ([]byte, []int) {
	t.Helper()
	total := InitialHeaderBytes
	for _, s := range sizes {
		total += s
	}
	b := make([]byte, total)
	PutWord(b, PrologueHdrOffset, Pack(PrologueSize, true))
	PutWord(b, PrologueFtrOffset, Pack(PrologueSize, true))

	bps := make([]int, len(sizes))
	bp := FirstBP
	for i, s := range sizes {
		SetTags(b, bp, s, alloc[i])
		bps[i] = bp
		bp += s
	}
	PutWord(b, Header(bp), Pack(0, true))
	return b, bps
}

func TestNeighbours(t *testing.T) {
	b, bps := newBlocks(t, []int{32, 64, 48}, []bool{true, false, true})

	if got := NextBlock(b, bps[0]); got != bps[1] {
		t.Fatalf("NextBlock(%d) = %d, want %d", bps[0], got, bps[1])
	}
	if got := PrevBlock(b, bps[2]); got != bps[1] {
		t.Fatalf("PrevBlock(%d) = %d, want %d", bps[2], got, bps[1])
	}
	if got := PrevBlock(b, bps[0]); got != PrologueBP {
		t.Fatalf("PrevBlock(first) = %d, want prologue %d", got, PrologueBP)
	}
	end := NextBlock(b, bps[2])
	if BlockSize(b, end) != 0 || !IsAllocated(b, end) {
		t.Fatalf("expected epilogue after last block")
	}
	if IsAllocated(b, bps[1]) {
		t.Fatalf("middle block should be free")
	}
	if HeaderTag(b, bps[1]) != FooterTag(b, bps[1]) {
		t.Fatalf("header and footer differ")
	}
	if Footer(b, bps[1]) != bps[1]+64-DSize {
		t.Fatalf("footer offset mismatch: %d", Footer(b, bps[1]))
	}
}

func TestFreeLinks(t *testing.T) {
	b, bps := newBlocks(t, []int{32, 32}, []bool{false, false})
	SetNextFree(b, bps[0], bps[1])
	SetPrevFree(b, bps[0], 0)
	SetNextFree(b, bps[1], 0)
	SetPrevFree(b, bps[1], bps[0])

	if NextFree(b, bps[0]) != bps[1] || PrevFree(b, bps[1]) != bps[0] {
		t.Fatalf("links not stored")
	}
	if NextFree(b, bps[1]) != 0 || PrevFree(b, bps[0]) != 0 {
		t.Fatalf("null links not stored")
	}
	// links must not touch the tags
	if BlockSize(b, bps[0]) != 32 || BlockSize(b, bps[1]) != 32 {
		t.Fatalf("links clobbered tags")
	}
}
