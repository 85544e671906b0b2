// Package heap provides the raw memory regions that back a heapkit allocator.
//
// A region is the sbrk analog: one contiguous byte range with a break
// pointer that only moves forward. The allocator asks it for more bytes with
// Grow and never otherwise touches the operating system.
//
// # Regions
//
//   - NewRegion(limit): a byte slice of fixed capacity. Portable, used by tests.
//   - Map(limit): anonymous private mmap (unix); plain slice elsewhere.
//   - OpenFile(path, limit): shared file mapping. Grow extends the file with
//     ftruncate and Sync flushes dirty pages with msync.
//
// Every region reserves its full capacity up front, so a slice returned by
// Bytes stays valid across Grow calls. Callers should still re-fetch Bytes
// after Grow to see the new length.
//
// # Thread Safety
//
// Regions are not thread-safe. Callers must serialize access.
package heap
