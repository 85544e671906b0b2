package alloc

// Ptr is a payload address: a byte offset into the allocator's region.
type Ptr int

// Nil is the null Ptr. Offset 0 is heap padding and never a payload.
const Nil Ptr = 0

// BlockInfo describes one block in memory order.
type BlockInfo struct {
	Addr      Ptr  `json:"addr"`
	Size      int  `json:"size"`
	Allocated bool `json:"allocated"`
}
