package format

// Boundary tags.
//
// Each block is laid out as
//
//	63                  4  3  2  1  0
//	-----------------------------------
//	| s  s  s  s  ... s  s  0  0  0  a |
//	-----------------------------------
//
// for both the header (bp-8) and the footer (bp+size-16), where bp is the
// payload offset. Size includes header, footer, payload and padding.

// Pack combines a block size and allocated flag into a tag.
func Pack(size int, alloc bool) uint64 {
	t := uint64(size)
	if alloc {
		t |= AllocBit
	}
	return t
}

// TagSize extracts the size field from a tag.
func TagSize(tag uint64) int {
	return int(tag & SizeMask)
}

// TagAlloc reports whether the tag has its allocated bit set.
func TagAlloc(tag uint64) bool {
	return tag&AllocBit != 0
}

// Header returns the offset of the header word for payload bp.
func Header(bp int) int {
	return bp - WordSize
}

// Footer returns the offset of the footer word for payload bp.
func Footer(b []byte, bp int) int {
	return bp + BlockSize(b, bp) - DSize
}

// BlockSize returns the size recorded in the header of payload bp.
func BlockSize(b []byte, bp int) int {
	return TagSize(ReadWord(b, Header(bp)))
}

// IsAllocated reports the allocated bit recorded in the header of payload bp.
func IsAllocated(b []byte, bp int) bool {
	return TagAlloc(ReadWord(b, Header(bp)))
}

// FooterTag returns the raw footer word of payload bp.
func FooterTag(b []byte, bp int) uint64 {
	return ReadWord(b, Footer(b, bp))
}

// HeaderTag returns the raw header word of payload bp.
func HeaderTag(b []byte, bp int) uint64 {
	return ReadWord(b, Header(bp))
}

// SetTags writes the same tag into the header and footer of payload bp.
// The header is written first so Footer sees the new size.
func SetTags(b []byte, bp, size int, alloc bool) {
	t := Pack(size, alloc)
	PutWord(b, Header(bp), t)
	PutWord(b, bp+size-DSize, t)
}

// NextBlock returns the payload offset of the block following bp.
func NextBlock(b []byte, bp int) int {
	return bp + BlockSize(b, bp)
}

// PrevBlock returns the payload offset of the block preceding bp.
//
// This is the only place that reads the word just before bp's header: the
// footer of the previous block. Boundary tags keep that footer valid for
// allocated and free blocks alike.
func PrevBlock(b []byte, bp int) int {
	return bp - TagSize(ReadWord(b, bp-DSize))
}

// Free-list link words. Only valid while the block at bp is free; once the
// block is allocated these bytes belong to the caller.

// NextFree returns the forward link stored in the payload of free block bp.
func NextFree(b []byte, bp int) int {
	return int(ReadWord(b, bp))
}

// PrevFree returns the backward link stored in the payload of free block bp.
func PrevFree(b []byte, bp int) int {
	return int(ReadWord(b, bp+WordSize))
}

// SetNextFree stores the forward link of free block bp.
func SetNextFree(b []byte, bp, next int) {
	PutWord(b, bp, uint64(next))
}

// SetPrevFree stores the backward link of free block bp.
func SetPrevFree(b []byte, bp, prev int) {
	PutWord(b, bp+WordSize, uint64(prev))
}
