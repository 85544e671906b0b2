package format

import "encoding/binary"

// Word encoding for tags and free-list links.
//
// The heap is a plain []byte, so every word goes through encoding/binary.
// The compiler inlines binary.LittleEndian well enough that an unsafe
// pointer cast buys nothing measurable.

// PutWord writes a 64-bit word at off.
func PutWord(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], v)
}

// ReadWord reads the 64-bit word at off.
func ReadWord(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+WordSize])
}
