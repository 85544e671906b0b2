package heap

import (
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/internal/mmfile"
)

// DefaultMaxHeap is the default region capacity (20 MiB).
const DefaultMaxHeap = 20 * (1 << 20)

var (
	// ErrOutOfMemory indicates the region cannot grow any further.
	ErrOutOfMemory = errors.New("heap: region exhausted")

	// ErrClosed indicates an operation on a closed region.
	ErrClosed = errors.New("heap: region closed")

	// ErrBadGrow indicates a negative grow request.
	ErrBadGrow = errors.New("heap: grow size must not be negative")
)

// Provider is the contract the allocator needs from a memory source.
type Provider interface {
	// Grow extends the region by n bytes and returns the offset of the first
	// new byte (the previous Size). On failure nothing changes.
	Grow(n int) (start int, err error)

	// Bytes returns the region contents up to the current break.
	Bytes() []byte

	// Size returns the current break.
	Size() int
}

// Region is a growable byte region backed by a slice, an anonymous mapping,
// or a shared file mapping.
type Region struct {
	f      *os.File
	data   []byte // full reservation; only data[:brk] is in use
	brk    int
	unmap  func() error
	closed bool
}

// NewRegion returns a slice-backed region that can grow up to limit bytes.
func NewRegion(limit int) *Region {
	if limit < 0 {
		limit = 0
	}
	return &Region{data: make([]byte, limit)}
}

// Map reserves limit bytes of anonymous memory for the region.
func Map(limit int) (*Region, error) {
	data, unmap, err := mmfile.Reserve(limit)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, unmap: unmap}, nil
}

// OpenFile creates (or truncates) the file at path and maps limit bytes of it.
// The file length always equals the region's break.
func OpenFile(path string, limit int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	data, unmap, err := mmfile.MapFile(f, limit)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return &Region{f: f, data: data, unmap: unmap}, nil
}

// Grow moves the break forward by n bytes.
func (r *Region) Grow(n int) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, ErrBadGrow
	}
	if n > len(r.data)-r.brk {
		return 0, fmt.Errorf("%w: requested %d bytes with %d of %d in use",
			ErrOutOfMemory, n, r.brk, len(r.data))
	}

	old := r.brk
	if r.f != nil && n > 0 {
		// Extend the file before exposing the bytes; touching mapped pages
		// past EOF faults.
		if err := r.f.Truncate(int64(old + n)); err != nil {
			return 0, fmt.Errorf("%w: extend %s: %w", ErrOutOfMemory, r.f.Name(), err)
		}
	}
	r.brk = old + n
	return old, nil
}

// Bytes returns the in-use part of the region.
func (r *Region) Bytes() []byte { return r.data[:r.brk] }

// Size returns the current break.
func (r *Region) Size() int { return r.brk }

// Cap returns the maximum size the region can grow to.
func (r *Region) Cap() int { return len(r.data) }

// FileBacked reports whether the region is a shared file mapping.
func (r *Region) FileBacked() bool { return r.f != nil }

// FD returns the backing file descriptor, or -1.
func (r *Region) FD() int {
	if r == nil || r.f == nil {
		return -1
	}
	return int(r.f.Fd())
}

// Sync flushes bytes [off, off+n) of a file-backed region to disk. The range
// is widened to whole pages. It is a no-op for other regions.
func (r *Region) Sync(off, n int) error {
	if r.closed {
		return ErrClosed
	}
	if r.f == nil || n <= 0 {
		return nil
	}
	page := os.Getpagesize()
	start := off &^ (page - 1)
	end := min(off+n, r.brk)
	if start >= end {
		return nil
	}
	return mmfile.Sync(r.data[start:end])
}

// Close releases the mapping and the backing file, if any.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.unmap != nil {
		err = r.unmap()
		r.unmap = nil
	}
	r.data = nil
	r.brk = 0
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}

// Compile-time interface check
var _ Provider = (*Region)(nil)
