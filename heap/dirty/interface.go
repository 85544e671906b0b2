package dirty

// DirtyTracker is the minimal interface for reporting written byte ranges.
// The allocator depends only on this.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the region, length is the number of bytes.
	Add(off, length int)
}

// Syncer persists a byte range of a region. *heap.Region implements it.
type Syncer interface {
	Sync(off, length int) error
}
