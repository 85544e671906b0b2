//go:build unix

// Package mmfile provides platform-specific helpers for reserving and syncing
// memory-mapped heap regions.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Supported reports whether real mappings are available on this platform.
const Supported = true

// Reserve maps n bytes of anonymous, private, zero-filled memory.
func Reserve(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid reservation size %d", n)
	}
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: reserve %d bytes: %w", n, err)
	}
	return data, unmapper(data), nil
}

// MapFile maps n bytes of f read-write and shared. The file may be shorter
// than n; callers must only touch bytes below the file's current size.
func MapFile(f *os.File, n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid mapping size %d", n)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %s: %w", f.Name(), err)
	}
	return data, unmapper(data), nil
}

// Sync flushes a mapped range to its backing file.
func Sync(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Msync(b, unix.MS_SYNC)
}

func unmapper(data []byte) func() error {
	return func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
}
