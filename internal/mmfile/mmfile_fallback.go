//go:build !unix

// Package mmfile provides platform-specific helpers for reserving and syncing
// memory-mapped heap regions.
package mmfile

import (
	"errors"
	"fmt"
	"os"
)

// Supported reports whether real mappings are available on this platform.
const Supported = false

// ErrUnsupported is returned by MapFile where shared file mappings are unavailable.
var ErrUnsupported = errors.New("mmfile: file mapping not supported on this platform")

// Reserve falls back to an ordinary zeroed byte slice.
func Reserve(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid reservation size %d", n)
	}
	return make([]byte, n), func() error { return nil }, nil
}

// MapFile is not available without mmap.
func MapFile(_ *os.File, _ int) ([]byte, func() error, error) {
	return nil, nil, ErrUnsupported
}

// Sync is a no-op without a shared mapping.
func Sync(_ []byte) error { return nil }
