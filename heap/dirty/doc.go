// Package dirty tracks which byte ranges of a heap region the allocator has
// written, so a file-backed region can flush only the pages that changed.
//
// # Overview
//
// The allocator calls Add for every boundary tag and free-list link it
// writes. At flush time the tracker page-aligns the ranges, sorts and merges
// them, and hands each merged range to a Syncer (msync for file-backed
// regions).
//
// # Usage
//
//	r, _ := heap.OpenFile("heap.bin", heap.DefaultMaxHeap)
//	dt := dirty.NewTracker(r)
//	a, _ := alloc.New(r, dt, nil)
//
//	p, _ := a.Alloc(128)
//	copy(a.Payload(p), data)
//	dt.Add(int(p), len(data)) // payload writes are the caller's to report
//
//	err := dt.Flush(ctx)
//
// # Page-Level Granularity
//
// Ranges are rounded to 4KB pages: a one-byte change marks the whole page.
//
// # Thread Safety
//
// Tracker is not thread-safe.
package dirty
