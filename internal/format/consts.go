// Package format houses the low-level block layout of the heap: word sizes,
// boundary tags, and the free-list link words that live inside free payloads.
// Nothing here validates its input; callers must only pass offsets that sit on
// real block boundaries.
package format

const (
	// WordSize is the size of one header, footer, or free-list link word.
	WordSize = 8

	// DSize is the double-word alignment unit. Every block size and every
	// payload offset is a multiple of DSize.
	DSize = 16

	// DSizeMask is used by AlignDSize.
	DSizeMask = DSize - 1

	// Overhead is the per-block cost of the header plus the footer.
	Overhead = 2 * WordSize

	// MinBlockSize is the smallest block the allocator will ever create:
	// header + footer + two link words for the free list.
	MinBlockSize = DSize + Overhead

	// ChunkSize is the default number of bytes requested from the region
	// whenever the heap must grow (and the size of the initial extension).
	ChunkSize = 1 << 12

	// AllocBit marks a tag as allocated.
	AllocBit = 0x1

	// SizeMask strips the low flag bits from a tag.
	SizeMask = ^uint64(DSizeMask)
)

// Heap prologue layout, as offsets from the start of the region:
//
//	0x00  padding word
//	0x08  prologue header  (16 | a)
//	0x10  prologue footer  (16 | a)
//	0x18  epilogue header  ( 0 | a)
//
// The prologue "payload" sits at PrologueBP and the first real block payload
// sits at FirstBP once the heap has been extended.
const (
	PadOffset          = 0
	PrologueHdrOffset  = WordSize
	PrologueFtrOffset  = 2 * WordSize
	EpilogueHdrOffset  = 3 * WordSize
	PrologueBP         = DSize
	PrologueSize       = DSize
	InitialHeaderBytes = 4 * WordSize
	FirstBP            = InitialHeaderBytes
)
