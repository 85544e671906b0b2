package alloc

import "math"

// SizeClassConfig defines the size class boundaries used to bucket free
// blocks when reporting fragmentation. The allocator itself keeps one list
// and never consults these classes on the allocation path.
type SizeClassConfig struct {
	// Name for this configuration (for reports)
	Name string

	// Small block settings (linear increments)
	SmallMin       int // Smallest block size (32 for this heap)
	SmallMax       int // Max for linear increments
	SmallIncrement int // Increment between small classes (multiple of 16)

	// Medium/Large settings (logarithmic growth)
	MediumMax    int     // Everything above lands in the overflow class
	GrowthFactor float64 // Exponential growth factor (1.5, 2.0, etc.)
}

// Predefined histogram layouts.
var (
	// HistogramFine: one class per 16-byte step up to 256, then 1.5x growth.
	HistogramFine = SizeClassConfig{
		Name:           "Fine",
		SmallMin:       32,
		SmallMax:       256,
		SmallIncrement: 16,
		MediumMax:      64 << 10,
		GrowthFactor:   1.5,
	}

	// HistogramPow2: power-of-two classes from 32 bytes to 1MB.
	HistogramPow2 = SizeClassConfig{
		Name:           "Pow2",
		SmallMin:       32,
		SmallMax:       32,
		SmallIncrement: 16,
		MediumMax:      1 << 20,
		GrowthFactor:   2.0,
	}

	// DefaultHistogram is used when Histogram is given a nil config.
	DefaultHistogram = HistogramPow2
)

// SizeClassCount is one histogram bucket. Max is the inclusive upper bound
// of the class; the overflow class has Max == -1.
type SizeClassCount struct {
	Max    int `json:"max"`
	Blocks int `json:"blocks"`
	Bytes  int `json:"bytes"`
}

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []int // Upper bound for each size class
	numClasses int
}

// newSizeClassTable computes size class boundaries from config.
func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]int, 0, 32),
	}

	// Phase 1: linear increments
	if config.SmallIncrement > 0 {
		for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
			table.boundaries = append(table.boundaries, size+config.SmallIncrement-1)
		}
	}

	// Phase 2: logarithmic growth
	if config.SmallMax < config.MediumMax {
		size := max(config.SmallMax, 1)
		for size < config.MediumMax {
			nextSize := int(math.Ceil(float64(size) * config.GrowthFactor))
			if nextSize <= size {
				nextSize = size + 1 // Ensure progress
			}
			table.boundaries = append(table.boundaries, nextSize-1)
			size = nextSize
		}
	}

	table.numClasses = len(table.boundaries)
	return table
}

// getSizeClass returns the size class index for a block size.
// Returns t.numClasses for sizes beyond the last boundary (overflow class).
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	return t.numClasses
}

// histogram buckets sizes into the table's classes. Empty classes are omitted.
func (t *sizeClassTable) histogram(sizes []int) []SizeClassCount {
	counts := make([]SizeClassCount, t.numClasses+1)
	for i, b := range t.boundaries {
		counts[i].Max = b
	}
	counts[t.numClasses].Max = -1

	for _, s := range sizes {
		c := &counts[t.getSizeClass(s)]
		c.Blocks++
		c.Bytes += s
	}

	out := counts[:0]
	for _, c := range counts {
		if c.Blocks > 0 {
			out = append(out, c)
		}
	}
	return out
}
